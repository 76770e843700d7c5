package rssfeed

import (
	"sort"
	"strings"

	"taxpulse/internal/domain"
)

// sebiDocTypes maps SEBI URL path fragments to document-type tags. Order
// matters: the first matching fragment wins.
var sebiDocTypes = []struct {
	fragment string
	tag      string
}{
	{"/press-releases/", "PressRelease"},
	{"/circulars/", "Circular"},
	{"/orders/", "Order"},
	{"/regulations/", "Regulation"},
	{"/enforcement/", "Enforcement"},
}

// SEBITagHook appends the SEBI provenance tag and, when the item URL path
// identifies a document type, one document-type tag. The result is
// deduplicated and re-sorted.
func SEBITagHook(url string, tags []string) []string {
	tags = append(tags, "SEBI")

	lower := strings.ToLower(url)
	for _, dt := range sebiDocTypes {
		if strings.Contains(lower, dt.fragment) {
			tags = append(tags, dt.tag)
			break
		}
	}

	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// TagHookFor returns the per-source tag hook for a feed, or nil when the
// feed needs no post-processing.
func TagHookFor(feedName string) domain.TagHook {
	if feedName == "SEBI" {
		return SEBITagHook
	}
	return nil
}
