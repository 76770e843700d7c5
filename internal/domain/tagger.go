package domain

import (
	"sort"
	"strings"
)

// DefaultMinTags is the relevance gate: items with fewer tags than this are
// never persisted. Kept configurable because the cutoff is a heuristic
// precision/recall tradeoff, not a hard requirement.
const DefaultMinTags = 1

// Vocabulary maps a tag to the keyword phrases that trigger it. A tag is
// applied when any one of its phrases occurs in the normalized text.
type Vocabulary map[string][]string

// TopicVocabulary covers the regulatory and tax subject areas tracked.
var TopicVocabulary = Vocabulary{
	"GST": {
		"gst", "gstr", "gstin", "e-invoice", "einvoice", "irn", "e-way bill",
		"eway bill", "ewaybill", "input tax credit", "itc", "reverse charge",
	},
	"IncomeTax": {
		"income tax", "itr", "return filing", "tax refund", "income tax return",
		"advance tax", "tds refund", "26as", "form 16",
	},
	"TDS/TCS": {
		"tds", "tcs", "traces", "form 26q", "form 27q", "tds return",
		"tcs return", "tds certificate", "tds deduction",
	},
	"PF/ESI/PT": {
		"pf", "epfo", "esic", "esi", "provident fund", "employee state insurance",
		"pt", "professional tax", "uan", "pf return",
	},
	"MCA/ROC": {
		"mca", "roc", "ministry of corporate affairs", "annual filing",
		"form aoc", "form mgt", "dir-3", "company filing", "roc filing",
	},
	"Registration": {
		"registration", "tan", "pan", "din", "dsc", "digital signature",
		"udyam", "msme registration", "shop act",
	},
}

// PainVocabulary covers negative-sentiment and friction signals.
var PainVocabulary = Vocabulary{
	"PortalIssues": {
		"portal down", "portal not working", "website down", "server error",
		"login issue", "login failed", "otp not received", "otp issue",
		"captcha", "session timeout", "site not working", "technical issue",
		"system error", "portal error", "dsc error", "token error",
		"authentication failed", "unable to login", "cant login", "can't login",
		"portal slow", "loading error",
	},
	"Deadlines": {
		"due date", "deadline", "last date", "penalty", "late fee", "fine",
		"interest", "delayed", "extension", "missed deadline", "overdue",
		"filing date", "expiring", "expires", "urgent",
	},
	"Negative": {
		"error", "failed", "failure", "issue", "problem", "bug", "glitch",
		"annoyed", "frustrated", "angry", "terrible", "horrible", "worst",
		"useless", "pathetic", "complicated", "confusing", "difficult",
		"stuck", "cant", "can't", "unable", "not working", "broken",
		"rejected", "delay", "delayed", "waiting", "still waiting",
	},
}

// Tagger classifies text against the fixed topic and pain vocabularies.
// Matching is case-insensitive substring containment, not word-boundary-aware:
// a phrase occurring inside a larger word still matches. That false-positive
// rate is accepted because the topic vocabulary narrows the domain enough.
type Tagger struct {
	topics Vocabulary
	pain   Vocabulary
}

// NewTagger creates a Tagger over the fixed vocabularies.
func NewTagger() *Tagger {
	return &Tagger{topics: TopicVocabulary, pain: PainVocabulary}
}

// normalizeText lowercases and collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TagContent returns the sorted set of topic and pain tags triggered by the
// combined title and text. Deterministic: identical input always yields the
// identical sorted sequence.
func (t *Tagger) TagContent(title, text string) []string {
	normalized := normalizeText(title + " " + text)

	var tags []string
	for _, vocab := range []Vocabulary{t.topics, t.pain} {
		for tag, keywords := range vocab {
			for _, kw := range keywords {
				if strings.Contains(normalized, kw) {
					tags = append(tags, tag)
					break
				}
			}
		}
	}

	sort.Strings(tags)
	return tags
}

// IsRelevant reports whether the content carries at least minTags tags. This
// is the sole admission filter applied before a record reaches storage.
func (t *Tagger) IsRelevant(title, text string, minTags int) bool {
	return len(t.TagContent(title, text)) >= minTags
}

// IsPainTag reports whether tag belongs to the pain vocabulary.
func (t *Tagger) IsPainTag(tag string) bool {
	_, ok := t.pain[tag]
	return ok
}

// PainTags returns the sorted names of all pain tags. The dashboard uses this
// to color-code pain signals without duplicating the vocabulary client-side.
func (t *Tagger) PainTags() []string {
	tags := make([]string, 0, len(t.pain))
	for tag := range t.pain {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// PainPercent is the share of pain-tag occurrences among all tag occurrences
// across the given posts, as a percentage. An empty set yields 0.
func (t *Tagger) PainPercent(posts []Post) float64 {
	var pain, total int
	for _, p := range posts {
		for _, tag := range p.Tags {
			total++
			if t.IsPainTag(tag) {
				pain++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(pain) / float64(total) * 100
}

// HasTag reports whether the post's tags intersect the comma-separated search
// list (OR logic). An empty list matches everything.
func HasTag(tags []string, search string) bool {
	if strings.TrimSpace(search) == "" {
		return true
	}
	for _, want := range strings.Split(search, ",") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for _, tag := range tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}
