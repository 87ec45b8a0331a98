package split

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-creative/content-engine/internal/ingest"
	"github.com/atlas-creative/content-engine/internal/model"
)

type stubBackend struct {
	name      string
	available bool
	pages     []int
	err       error
	calls     int
}

func (s *stubBackend) Name() string    { return s.name }
func (s *stubBackend) Available() bool { return s.available }

func (s *stubBackend) SplitPages(_ context.Context, _, destDir string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	for _, n := range s.pages {
		path := filepath.Join(destDir, fmt.Sprintf("page-%d.pdf", n))
		if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestChainSplitUsesFirstAvailableBackend(t *testing.T) {
	offline := &stubBackend{name: "offline", available: false}
	primary := &stubBackend{name: "primary", available: true, pages: []int{1, 2, 3}}
	secondary := &stubBackend{name: "secondary", available: true, pages: []int{1}}
	chain := newChainWithBackends([]Backend{offline, primary, secondary}, time.Minute)

	pages, err := chain.Split(context.Background(), "/in/deck.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)

	for n, path := range pages {
		assert.FileExists(t, path)
		assert.Contains(t, path, fmt.Sprintf("page-%d.pdf", n))
	}
}

func TestChainSplitNoBackend(t *testing.T) {
	chain := newChainWithBackends(nil, time.Minute)
	_, err := chain.Split(context.Background(), "/in/deck.pdf", t.TempDir())
	require.ErrorIs(t, err, ErrNoSplitter)
	require.ErrorIs(t, chain.Probe(), ErrNoSplitter)
}

func TestChainSplitBackendFailure(t *testing.T) {
	failing := &stubBackend{name: "failing", available: true, err: eris.New("corrupt pdf")}
	chain := newChainWithBackends([]Backend{failing}, time.Minute)

	_, err := chain.Split(context.Background(), "/in/deck.pdf", t.TempDir())
	require.Error(t, err)
}

func TestChainSplitNoPagesProduced(t *testing.T) {
	empty := &stubBackend{name: "empty", available: true}
	chain := newChainWithBackends([]Backend{empty}, time.Minute)

	_, err := chain.Split(context.Background(), "/in/deck.pdf", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no pages")
}

func TestParsePageTable(t *testing.T) {
	specs, err := parsePageTable([]byte(`
- page: 3
  client: CrowdStrike
  title: Marketecture & Product Portfolio
  capabilities: [product-marketing]
  industries: [cybersecurity]
- page: 7
  client: Acme
  title: Full Rebrand
`))
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, 3, specs[0].Page)
	assert.Equal(t, "CrowdStrike", specs[0].Client)
	assert.Equal(t, []string{"product-marketing"}, specs[0].Capabilities)
}

func TestParsePageTableValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"zero page", "- page: 0\n  client: A\n  title: T\n"},
		{"duplicate page", "- page: 1\n  client: A\n  title: T\n- page: 1\n  client: B\n  title: U\n"},
		{"missing client", "- page: 1\n  title: T\n"},
		{"missing title", "- page: 1\n  client: A\n"},
		{"not yaml", `{{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parsePageTable([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadPageTableMissingFile(t *testing.T) {
	_, err := LoadPageTable(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

type stubSplitter struct {
	pages map[int]string
	err   error
}

func (s *stubSplitter) Split(_ context.Context, _, _ string) (map[int]string, error) {
	return s.pages, s.err
}

type stubIngestor struct {
	existing map[string]bool
	failOn   map[string]bool
	calls    []ingest.PageMeta
}

func (s *stubIngestor) IngestPage(_ context.Context, _ string, meta ingest.PageMeta) (*ingest.Result, error) {
	s.calls = append(s.calls, meta)
	if s.failOn[meta.Client] {
		return nil, eris.New("ingest failed")
	}
	if s.existing[meta.Client] {
		return &ingest.Result{Slug: meta.Client, AlreadyExists: true}, nil
	}
	return &ingest.Result{Slug: meta.Client, ChunksWritten: 2}, nil
}

func TestSplitIngest(t *testing.T) {
	splitter := &stubSplitter{pages: map[int]string{1: "/tmp/page-1.pdf", 2: "/tmp/page-2.pdf"}}
	ingestor := &stubIngestor{existing: map[string]bool{"Beta": true}}
	specs := []model.PageSpec{
		{Page: 1, Client: "Acme", Title: "Rebrand"},
		{Page: 2, Client: "Beta", Title: "Launch"},
		{Page: 9, Client: "Gamma", Title: "Missing"},
	}

	summary, err := SplitIngest(context.Background(), splitter, ingestor, "/in/deck.pdf", specs)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, []int{9}, summary.MissingPages)
	// The missing page never reaches the ingestor.
	require.Len(t, ingestor.calls, 2)
}

func TestSplitIngestSplitterFailureIsFatal(t *testing.T) {
	splitter := &stubSplitter{err: ErrNoSplitter}
	_, err := SplitIngest(context.Background(), splitter, &stubIngestor{}, "/in/deck.pdf", nil)
	require.ErrorIs(t, err, ErrNoSplitter)
}

func TestSplitIngestPerPageFailureTallied(t *testing.T) {
	splitter := &stubSplitter{pages: map[int]string{1: "/tmp/page-1.pdf", 2: "/tmp/page-2.pdf"}}
	ingestor := &stubIngestor{failOn: map[string]bool{"Acme": true}}
	specs := []model.PageSpec{
		{Page: 1, Client: "Acme", Title: "Rebrand"},
		{Page: 2, Client: "Beta", Title: "Launch"},
	}

	summary, err := SplitIngest(context.Background(), splitter, ingestor, "/in/deck.pdf", specs)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Ingested)
	assert.Empty(t, summary.MissingPages)
}
