package rssfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSEBITagHookDocTypes(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{
			name: "press release",
			url:  "https://www.sebi.gov.in/media-and-notifications/press-releases/aug-2026/example_12345.html",
			want: []string{"PressRelease", "SEBI"},
		},
		{
			name: "circular",
			url:  "https://www.sebi.gov.in/legal/circulars/aug-2026/example_12345.html",
			want: []string{"Circular", "SEBI"},
		},
		{
			name: "order",
			url:  "https://www.sebi.gov.in/enforcement/orders/aug-2026/example_12345.html",
			want: []string{"Order", "SEBI"},
		},
		{
			name: "enforcement without order path",
			url:  "https://www.sebi.gov.in/enforcement/aug-2026/example_12345.html",
			want: []string{"Enforcement", "SEBI"},
		},
		{
			name: "regulation",
			url:  "https://www.sebi.gov.in/legal/regulations/aug-2026/example_12345.html",
			want: []string{"Regulation", "SEBI"},
		},
		{
			name: "no document type",
			url:  "https://www.sebi.gov.in/about-sebi.html",
			want: []string{"SEBI"},
		},
		{
			name: "case insensitive path match",
			url:  "https://www.sebi.gov.in/Legal/Circulars/aug-2026/example.html",
			want: []string{"Circular", "SEBI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SEBITagHook(tt.url, nil))
		})
	}
}

func TestSEBITagHookFirstMatchWins(t *testing.T) {
	// Path contains both /press-releases/ and /orders/; the earlier document
	// type in the table wins.
	tags := SEBITagHook("https://www.sebi.gov.in/media-and-notifications/press-releases/orders/x.html", nil)
	assert.Equal(t, []string{"PressRelease", "SEBI"}, tags)
}

func TestSEBITagHookMergesAndDedups(t *testing.T) {
	tags := SEBITagHook("https://www.sebi.gov.in/legal/circulars/x.html", []string{"SEBI", "GST"})
	assert.Equal(t, []string{"Circular", "GST", "SEBI"}, tags)
}

func TestTagHookFor(t *testing.T) {
	assert.NotNil(t, TagHookFor("SEBI"))
	assert.Nil(t, TagHookFor("TaxGuru"))
	assert.Nil(t, TagHookFor(""))
}
