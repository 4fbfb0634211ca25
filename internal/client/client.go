// Package client talks to a running fburn server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/fburn/internal/server"
)

const (
	requestTimeout = 10 * time.Second
	uploadTimeout  = 60 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "fburn/1.0"
)

// ErrNoStatement indicates the server has no upload yet.
var ErrNoStatement = errors.New("client: no statement uploaded")

// APIError is a non-2xx response carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("client: %s (HTTP %d)", e.Message, e.Status)
}

// Client calls the fburn HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for addr, either host:port or a full URL.
// Returns nil if addr is empty.
func New(addr string) *Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: strings.TrimSuffix(addr, "/"),
		http:    &http.Client{},
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/healthz")
	return err
}

// Status returns the server's session status.
func (c *Client) Status(ctx context.Context) (*server.Status, error) {
	body, err := c.get(ctx, "/v1/status")
	if err != nil {
		return nil, err
	}
	var st server.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("client: parsing status: %w", err)
	}
	return &st, nil
}

// Summary returns the aggregated view of the current upload.
func (c *Client) Summary(ctx context.Context) (*server.Summary, error) {
	body, err := c.get(ctx, "/v1/summary")
	if err != nil {
		return nil, err
	}
	var sum server.Summary
	if err := json.Unmarshal(body, &sum); err != nil {
		return nil, fmt.Errorf("client: parsing summary: %w", err)
	}
	return &sum, nil
}

// Upload sends the statement at path, replacing the server's session.
func (c *Client) Upload(ctx context.Context, path string) (*server.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("client: opening statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("client: building upload: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("client: reading statement: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: building upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var res server.UploadResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("client: parsing upload result: %w", err)
	}
	return &res, nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is built from the user's configured server address
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrNoStatement
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return nil, apiErr
	}
	return body, nil
}
