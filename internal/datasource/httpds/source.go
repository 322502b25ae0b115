package httpds

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// IsURL reports whether dir names an http or https location.
func IsURL(dir string) bool {
	return strings.HasPrefix(dir, "http://") || strings.HasPrefix(dir, "https://")
}

// JoinURL appends file to the path of base.
func JoinURL(base, file string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("httpds: parse %s: %w", base, err)
	}
	u.Path = path.Join("/", u.Path, file)
	return u.String(), nil
}

// Source is one table served at a URL.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// Location returns the URL.
func (s *Source) Location() string { return s.url }

// Open fetches the table. 404 and 410 are reported as fs.ErrNotExist so a
// missing remote table is treated like a missing file.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d: %w", s.url, resp.StatusCode, fs.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", s.url, resp.StatusCode)
	}
	return resp.Body, nil
}
