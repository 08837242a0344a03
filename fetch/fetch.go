// Package fetch is the URL-fetch collaborator: retrieve a remote document
// into a scoped temporary file. The engine neither authenticates nor follows
// redirects beyond what the HTTP client itself provides.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"mailresolve/model"
)

// Fetcher retrieves a document by URL into a local file. cleanup removes the
// file and must be called on every exit path.
type Fetcher interface {
	FetchToFile(ctx context.Context, url string) (path string, cleanup func(), err error)
}

// HTTPFetcher fetches over plain HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) FetchToFile(ctx context.Context, url string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	tmp, err := os.CreateTemp("", "mailresolve-doc-*.xlsx")
	if err != nil {
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: err}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, &model.DocumentError{Op: "fetch", Ref: url, Err: err}
	}

	path := tmp.Name()
	cleanup := func() {
		os.Remove(path)
	}
	return path, cleanup, nil
}
