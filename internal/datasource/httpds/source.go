package httpds

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// Source downloads a dataset over HTTP(S).
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching rawURL with client.
func NewSource(client *Client, rawURL string) *Source {
	return &Source{client: client, url: rawURL}
}

// Name returns the last path segment of the URL, or a hash of the URL when
// the path has none.
func (s *Source) Name() string { return NameFromURL(s.url) }

// Open issues a GET and returns the body. Non-2xx responses are errors.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: fetch %s: %w", s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{Method: http.MethodGet, URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// NameFromURL derives a dataset name from a URL.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return base
		}
	}
	h := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(h[:8])
}
