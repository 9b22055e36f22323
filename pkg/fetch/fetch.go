// Package fetch downloads remote data products to local files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultTimeout = 5 * time.Minute

// Client downloads files over HTTP. The zero value is not usable;
// construct with NewClient.
type Client struct {
	http *http.Client
}

// NewClient returns a download client with a sensible overall timeout
// for archive-sized files.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// Download fetches url into destPath. If destPath already exists and is
// non-empty it is reused and no request is made. The body is written to
// a temporary file in the destination directory and renamed into place
// on success, so an interrupted download never leaves a truncated file
// behind. Returns true if the file was fetched, false if reused.
func (c *Client) Download(ctx context.Context, url, destPath string) (bool, error) {
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return false, fmt.Errorf("fetch: create destination directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("fetch: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch: get %s: unexpected status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return false, fmt.Errorf("fetch: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return false, fmt.Errorf("fetch: download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("fetch: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return false, fmt.Errorf("fetch: move download into place: %w", err)
	}

	return true, nil
}
