package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/documents/case-studies/acme.pdf", r.URL.Path)
		assert.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "pdf-bytes", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "svc-key", "documents")
	url, err := c.Upload(context.Background(), "case-studies/acme.pdf", []byte("pdf-bytes"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/documents/case-studies/acme.pdf", url)
}

func TestUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"denied"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key", "documents")
	_, err := c.Upload(context.Background(), "x.pdf", []byte("data"), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	c := NewClient(srv.URL, "key", "documents")
	url, err := c.UploadFile(context.Background(), "case-studies/report.pdf", path)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestUploadFileMissing(t *testing.T) {
	c := NewClient("http://localhost", "key", "documents")
	_, err := c.UploadFile(context.Background(), "x.pdf", "/missing/file.pdf")
	require.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	c := NewClient("https://proj.supabase.co", "key", "documents")
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/documents/case-studies/a.pdf",
		c.PublicURL("case-studies/a.pdf"))
}
