// Package assets matches loose PDF files to known clients, uploads them to
// object storage, and links the public URLs onto the owning case studies.
package assets

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/store"
	"github.com/atlas-creative/content-engine/pkg/supabase"
)

// Pattern maps a canonical client name to the lowercased filename substrings
// that identify it.
type Pattern struct {
	Client     string
	Substrings []string
}

// DefaultPatterns is the client roster checked in declaration order; the
// first matching entry wins.
var DefaultPatterns = []Pattern{
	{Client: "CrowdStrike", Substrings: []string{"crowdstrike", "crowd-strike"}},
	{Client: "Salesforce", Substrings: []string{"salesforce", "sfdc"}},
	{Client: "Atlassian", Substrings: []string{"atlassian", "jira", "confluence"}},
	{Client: "Datadog", Substrings: []string{"datadog", "data-dog"}},
	{Client: "Stripe", Substrings: []string{"stripe"}},
	{Client: "Figma", Substrings: []string{"figma"}},
	{Client: "HashiCorp", Substrings: []string{"hashicorp", "terraform", "vault"}},
	{Client: "Snowflake", Substrings: []string{"snowflake"}},
}

var unsafePathRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Summary tallies a matching run.
type Summary struct {
	Uploaded  int
	Linked    int
	Unmatched int
}

// Matcher uploads client PDFs and links them to case studies.
type Matcher struct {
	store    store.Store
	storage  supabase.Client
	prefix   string
	patterns []Pattern
}

// New constructs a Matcher. Nil patterns fall back to the default roster.
func New(st store.Store, storage supabase.Client, pathPrefix string, patterns []Pattern) *Matcher {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	if pathPrefix == "" {
		pathPrefix = "case-studies"
	}
	return &Matcher{store: st, storage: storage, prefix: pathPrefix, patterns: patterns}
}

// MatchClient resolves a filename to a canonical client name.
func (m *Matcher) MatchClient(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	for _, p := range m.patterns {
		for _, sub := range p.Substrings {
			if strings.Contains(lower, sub) {
				return p.Client, true
			}
		}
	}
	return "", false
}

// sanitizePath collapses unsafe filename runs into single hyphens so the
// object path stays URL-safe.
func sanitizePath(name string) string {
	return strings.Trim(unsafePathRe.ReplaceAllString(name, "-"), "-")
}

// MatchDirectory matches, uploads, and links every PDF in dir. Unmatched
// files and matches without an indexed case study are reported, not fatal.
func (m *Matcher) MatchDirectory(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "assets: read directory %s", dir)
	}

	caseStudies, err := m.store.ListCaseStudies(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}

		client, ok := m.MatchClient(e.Name())
		if !ok {
			summary.Unmatched++
			zap.L().Warn("no client pattern matched file", zap.String("file", e.Name()))
			continue
		}

		objectPath := path.Join(m.prefix, sanitizePath(e.Name()))
		publicURL, err := m.storage.UploadFile(ctx, objectPath, filepath.Join(dir, e.Name()))
		if err != nil {
			summary.Unmatched++
			zap.L().Warn("failed to upload asset",
				zap.String("file", e.Name()),
				zap.String("client", client),
				zap.Error(err),
			)
			continue
		}
		summary.Uploaded++

		linked := 0
		for _, doc := range caseStudies {
			if !docMatchesClient(doc.ClientName, doc.Title, client) {
				continue
			}
			if err := m.store.UpdateDocumentPDFURL(ctx, doc.ID, publicURL); err != nil {
				zap.L().Warn("failed to link asset to case study",
					zap.String("slug", doc.Slug),
					zap.Error(err),
				)
				continue
			}
			linked++
		}
		if linked == 0 {
			// A match without a record to attach to still counts as unmatched.
			summary.Unmatched++
			zap.L().Warn("matched client has no indexed case study",
				zap.String("file", e.Name()),
				zap.String("client", client),
			)
		}
		summary.Linked += linked
	}

	zap.L().Info("asset matching complete",
		zap.Int("uploaded", summary.Uploaded),
		zap.Int("linked", summary.Linked),
		zap.Int("unmatched", summary.Unmatched),
	)
	return summary, nil
}

func docMatchesClient(clientName, title, client string) bool {
	c := strings.ToLower(client)
	return strings.Contains(strings.ToLower(clientName), c) ||
		strings.Contains(strings.ToLower(title), c)
}
