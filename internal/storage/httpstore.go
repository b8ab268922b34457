package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opencontainers/go-digest"
)

// HTTPStore is a [Store] backed by the platform's blob service over a small
// REST surface: GET/PUT/DELETE per object, GET ?list=1 for prefix listing,
// and WebDAV-style MOVE with a Destination header for renames.
type HTTPStore struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPStore returns an [HTTPStore] for the blob service at baseURL.
func NewHTTPStore(baseURL string) (*HTTPStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob service URL %q: %w", baseURL, err)
	}

	client, err := newHTTPClient(u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("building blob service client: %w", err)
	}

	return &HTTPStore{base: u, client: client}, nil
}

// objectURL resolves key relative to the service base.
func (s *HTTPStore) objectURL(key string) string {
	u := *s.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	return u.String()
}

// List implements [Store].
func (s *HTTPStore) List(ctx context.Context, prefix string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(prefix)+"?list=1", nil)
	if err != nil {
		return nil, fmt.Errorf("building list request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing objects under %q: %w", prefix, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("listing objects under %q: unexpected status %s", prefix, resp.Status)
	}

	var keys []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading object listing: %w", err)
	}

	return keys, nil
}

// Get implements [Store].
func (s *HTTPStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("building get request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching object %q: %w", key, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching object %q: unexpected status %s", key, resp.Status)
	}
}

// Put implements [Store]. The body streams straight through to the service,
// the digest is computed on the fly.
func (s *HTTPStore) Put(ctx context.Context, key string, r io.Reader) (digest.Digest, error) {
	digester := digest.Canonical.Digester()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), io.TeeReader(r, digester.Hash()))
	if err != nil {
		return "", fmt.Errorf("building put request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading object %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("uploading object %q: unexpected status %s", key, resp.Status)
	}

	return digester.Digest(), nil
}

// Move implements [Store].
func (s *HTTPStore) Move(ctx context.Context, from, to string) error {
	req, err := http.NewRequestWithContext(ctx, "MOVE", s.objectURL(from), nil)
	if err != nil {
		return fmt.Errorf("building move request: %w", err)
	}
	req.Header.Set("Destination", s.objectURL(to))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("moving object %q to %q: %w", from, to, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotExist, from)
	default:
		return fmt.Errorf("moving object %q to %q: unexpected status %s", from, to, resp.Status)
	}
}

// Delete implements [Store].
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("deleting object %q: unexpected status %s", key, resp.Status)
	}
}
