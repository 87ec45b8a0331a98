package classify

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"underscores to spaces", "brand_strategy_overview.pdf", "brand strategy overview"},
		{"hyphens to separators", "CrowdStrike-Marketecture.pdf", "CrowdStrike - Marketecture"},
		{"path stripped", "/uploads/q3_review.pdf", "q3 review"},
		{"no extension", "annual report", "annual report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromFilename(tt.in))
		})
	}
}

func TestTitleFromFilenameCapsAt150(t *testing.T) {
	long := strings.Repeat("verylongword ", 30) + "end.pdf"
	got := TitleFromFilename(long)
	assert.LessOrEqual(t, len(got), 150)
}

func TestTitleFromFilenameNaturalBreak(t *testing.T) {
	// A break phrase between offsets 30 and 120 wins over hard truncation.
	in := strings.Repeat("x", 40) + "_and_" + strings.Repeat("y", 160) + ".pdf"
	got := TitleFromFilename(in)
	assert.Equal(t, strings.Repeat("x", 40), got)
	assert.LessOrEqual(t, len(got), 150)
}

func TestTitleFromFilenameHardTruncate(t *testing.T) {
	in := strings.Repeat("z", 200) + ".pdf"
	got := TitleFromFilename(in)
	assert.Equal(t, 150, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSummaryFirstQualifyingParagraph(t *testing.T) {
	content := "SECTION ONE HEADER THAT IS LONG ENOUGH TO PASS THE LENGTH CHECK BUT IS ALL UPPER CASE SO IT MUST BE SKIPPED ENTIRELY BY THE SELECTOR\n\n" +
		"short para\n\n" +
		"This paragraph is comfortably longer than one hundred characters and uses normal sentence casing, so it should be chosen as the document summary."
	got := Summary(content)
	assert.True(t, strings.HasPrefix(got, "This paragraph is comfortably"))
	assert.LessOrEqual(t, len(got), 300)
}

func TestSummaryTruncatesAt300(t *testing.T) {
	para := strings.Repeat("alpha beta gamma ", 40)
	got := Summary(para)
	assert.Equal(t, 300, len(got))
}

func TestSummaryEmptyWhenNothingQualifies(t *testing.T) {
	assert.Equal(t, "", Summary("TOO SHORT\n\ntiny"))
	assert.Equal(t, "", Summary(""))
}

func TestTopicsKeywordUnion(t *testing.T) {
	content := "Our newsletter covers the brand refresh and the product launch."
	got := Topics(content, "q2_update.pdf")
	assert.Equal(t, []string{"branding", "newsletter", "product-marketing"}, got)
}

func TestTopicsDefaultFallback(t *testing.T) {
	got := Topics("nothing matches here", "untitled.pdf")
	assert.Equal(t, []string{DefaultTopic}, got)
}

func TestTopicsFilenameContributes(t *testing.T) {
	got := Topics("plain body", "acme-case-study.pdf")
	assert.Contains(t, got, "case-study")
}

func TestTopicsDeterministic(t *testing.T) {
	content := "strategy and design system work for a careers page"
	first := Topics(content, "doc.pdf")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Topics(content, "doc.pdf"))
	}
}

func TestSlugify(t *testing.T) {
	slugRe := regexp.MustCompile(`^[a-z0-9-]*$`)

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"CrowdStrike: Marketecture & Product Portfolio", SlugMaxLen, "crowdstrike-marketecture-product-portfolio"},
		{"  --Hello World--  ", SlugMaxLen, "hello-world"},
		{"Café Déjà Vu", SlugMaxLen, "cafe-deja-vu"},
		{"", SlugMaxLen, ""},
	}
	for _, tt := range tests {
		got := Slugify(tt.in, tt.max)
		assert.Equal(t, tt.want, got)
		assert.Regexp(t, slugRe, got)
	}
}

func TestSlugifyTruncation(t *testing.T) {
	long := strings.Repeat("word ", 50)
	got := Slugify(long, ClientSlugMaxLen)
	assert.LessOrEqual(t, len(got), ClientSlugMaxLen)
	assert.False(t, strings.HasPrefix(got, "-"))
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, "Case Study", TopicName("case-study"))
	assert.Equal(t, "General", TopicName("general"))
}
