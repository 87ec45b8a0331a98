// Package supabase provides a minimal client for the Supabase Storage API.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the storage operations used by the asset pipeline.
type Client interface {
	// Upload stores data at objectPath within the bucket, overwriting any
	// existing object, and returns the durable public URL.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	// UploadFile reads a local file and uploads it.
	UploadFile(ctx context.Context, objectPath, filePath string) (string, error)
	// PublicURL returns the public URL for an object without uploading.
	PublicURL(objectPath string) string
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL    string
	serviceKey string
	bucket     string
	http       *http.Client
}

// NewClient creates a storage client for the given project URL and bucket.
func NewClient(projectURL, serviceKey, bucket string, opts ...Option) Client {
	c := &httpClient{
		baseURL:    projectURL,
		serviceKey: serviceKey,
		bucket:     bucket,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", eris.Wrap(err, "supabase: create upload request")
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	// Overwrite on repeated uploads so re-runs stay idempotent.
	req.Header.Set("x-upsert", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "supabase: upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", eris.Errorf("supabase: upload %s: status %d: %s", objectPath, resp.StatusCode, string(body))
	}

	return c.PublicURL(objectPath), nil
}

func (c *httpClient) UploadFile(ctx context.Context, objectPath, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", eris.Wrapf(err, "supabase: read %s", filePath)
	}
	return c.Upload(ctx, objectPath, data, "application/pdf")
}

func (c *httpClient) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
}
