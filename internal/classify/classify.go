// Package classify derives titles, summaries, topic tags, and slugs from
// document filenames and normalized content.
package classify

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleLen   = 150
	titleCutFloor = 30
	titleCutCeil  = 120

	summaryMinParagraph = 100
	summaryMaxLen       = 300

	// SlugMaxLen caps article-style slugs.
	SlugMaxLen = 100
	// ClientSlugMaxLen caps slugs combining client name and title.
	ClientSlugMaxLen = 80

	// DefaultTopic is assigned when no classification rule fires.
	DefaultTopic = "general"
)

// titleBreaks are natural cut points tried, in order, when a derived title
// runs over the length cap.
var titleBreaks = []string{" - ", " and ", " with ", " for "}

// topicRule maps a topic slug to the keywords that select it.
type topicRule struct {
	Slug     string
	Keywords []string
}

// topicRules is the fixed classification table, evaluated as a set union over
// lower-cased content plus filename. Order is fixed for reproducibility but
// does not affect the resulting set.
var topicRules = []topicRule{
	{Slug: "case-study", Keywords: []string{"case study", "case-study", "casestudy", "client story", "success story"}},
	{Slug: "newsletter", Keywords: []string{"newsletter", "monthly update", "quarterly update", "digest"}},
	{Slug: "careers", Keywords: []string{"careers", "hiring", "join our team", "job opening", "we're hiring"}},
	{Slug: "strategy", Keywords: []string{"strategy", "positioning", "go-to-market", "gtm", "messaging"}},
	{Slug: "branding", Keywords: []string{"brand", "identity", "logo", "visual language"}},
	{Slug: "product-marketing", Keywords: []string{"product marketing", "launch", "marketecture", "portfolio"}},
	{Slug: "design", Keywords: []string{"design system", "ux", "user experience", "interface"}},
	{Slug: "thought-leadership", Keywords: []string{"perspective", "point of view", "trends", "the future of"}},
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// TitleFromFilename derives a human title from a source filename.
// The result never exceeds 150 characters.
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	title := strings.ReplaceAll(base, "_", " ")
	title = strings.ReplaceAll(title, "-", " - ")
	title = strings.Join(strings.Fields(title), " ")

	if len(title) <= maxTitleLen {
		return title
	}

	for _, br := range titleBreaks {
		idx := strings.Index(title, br)
		if idx > titleCutFloor && idx < titleCutCeil {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title[:maxTitleLen-3] + "..."
}

// Summary returns the first qualifying paragraph of normalized content,
// capped at 300 characters. A paragraph qualifies when it is longer than 100
// characters and not an all-caps header. Returns "" when nothing qualifies.
func Summary(content string) string {
	for _, para := range strings.Split(content, "\n\n") {
		p := strings.TrimSpace(para)
		if len(p) <= summaryMinParagraph || isAllCaps(p) {
			continue
		}
		if len(p) > summaryMaxLen {
			return p[:summaryMaxLen]
		}
		return p
	}
	return ""
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// Topics classifies content plus filename against the rule table and returns
// a sorted, de-duplicated set of topic slugs. When no rule fires, the default
// topic is assigned.
func Topics(content, filename string) []string {
	haystack := strings.ToLower(content + " " + filename)

	set := map[string]bool{}
	for _, rule := range topicRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				set[rule.Slug] = true
				break
			}
		}
	}

	if len(set) == 0 {
		return []string{DefaultTopic}
	}

	slugs := make([]string, 0, len(set))
	for s := range set {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// TopicName renders a topic slug as a display name.
func TopicName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Slugify converts a title or name into a URL-safe slug: accents folded,
// lower-cased, non-alphanumeric runs collapsed to single hyphens, trimmed,
// and truncated to maxLen. Pure function of its input.
func Slugify(s string, maxLen int) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if maxLen > 0 && len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	return s
}
