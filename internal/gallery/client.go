package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Backend is the set of collaborator calls the gallery core depends on.
// It is implemented by *Client and replaced by fakes in tests.
type Backend interface {
	ListImages(ctx context.Context, filter FilterCriteria) (ListResponse, error)
	PrioritizeThumbnails(ctx context.Context, paths []string, tag string) error
	FetchThumbnail(ctx context.Context, req ThumbnailRequest) ([]byte, error)
	FetchAsset(ctx context.Context, path string) ([]byte, error)
	LoadEdit(ctx context.Context, path string) (EditRecord, bool, error)
	SaveEdit(ctx context.Context, path string, adj Adjustments) error
	DeleteEdit(ctx context.Context, path string) error
	ExtractMetadata(ctx context.Context, paths []string, force bool) (ExtractResult, error)
	Delete(ctx context.Context, paths []string) (BatchResult, error)
	Restore(ctx context.Context, paths []string) (BatchResult, error)
	Purge(ctx context.Context, paths []string) (BatchResult, error)
	FetchStats(ctx context.Context) (Counts, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// ErrAllFailed is returned by bulk operations when the server answered with
// a partial-success status but no path succeeded.
var ErrAllFailed = errors.New("no item succeeded")

// APIError is returned for non-2xx responses. Body holds the server's
// textual explanation, trimmed.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Message returns the human readable part of err, preferring the server body.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return err.Error()
}

// Client talks to the gallery HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   string
	thumbs    *rate.Limiter
}

const (
	defaultBaseURL      = "http://127.0.0.1:8188"
	defaultUserAgent    = "vitrine/0.1"
	requestTimeout      = 15 * time.Second
	defaultThumbRate    = 20
	maxErrorBodyBytes   = 4 << 10
	statusPartialResult = http.StatusMultiStatus
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithThumbnailRate caps thumbnail fetches per second. Zero or negative
// disables the cap.
func WithThumbnailRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.thumbs = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.thumbs = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient builds a Client for the given base URL or host:port.
func NewClient(base string, opts ...Option) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		session:   uuid.NewString(),
		thumbs:    rate.NewLimiter(rate.Limit(defaultThumbRate), defaultThumbRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the id this client sends with every request.
func (c *Client) Session() string {
	return c.session
}

// ListImages fetches the full filtered image list.
func (c *Client) ListImages(ctx context.Context, filter FilterCriteria) (ListResponse, error) {
	if c == nil {
		return ListResponse{}, fmt.Errorf("client is nil")
	}
	var payload ListResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/gallery/images", nil, filter.Normalized(), &payload); err != nil {
		return ListResponse{}, err
	}
	return payload, nil
}

// PrioritizeThumbnails asks the server to generate the given thumbnails
// first. The response carries nothing the caller needs.
func (c *Client) PrioritizeThumbnails(ctx context.Context, paths []string, tag string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if len(paths) == 0 {
		return nil
	}
	body := struct {
		Paths   []string `json:"paths"`
		Context string   `json:"context"`
	}{Paths: paths, Context: tag}
	return c.doJSON(ctx, http.MethodPost, "/api/gallery/thumbnails/prioritize", nil, body, nil)
}

// FetchThumbnail downloads one thumbnail. A failed request returns an
// *APIError whose Body is the server's error text.
func (c *Client) FetchThumbnail(ctx context.Context, req ThumbnailRequest) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("thumbnail filename required")
	}
	if c.thumbs != nil {
		if err := c.thumbs.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for thumbnail slot: %w", err)
		}
	}
	return c.doBytes(ctx, "/api/gallery/thumbnail", ThumbnailQuery(req))
}

// ThumbnailQuery encodes the query string for a thumbnail request.
func ThumbnailQuery(req ThumbnailRequest) url.Values {
	values := url.Values{}
	values.Set("filename", req.Filename)
	if req.Subfolder != "" {
		values.Set("subfolder", req.Subfolder)
	}
	if req.Modified > 0 {
		values.Set("mtime", itoa(req.Modified))
	}
	if req.Force {
		values.Set("force", "true")
		bust := req.Bust
		if bust == 0 {
			bust = time.Now().UnixMilli()
		}
		values.Set("t", itoa(bust))
	}
	return values
}

// FetchAsset downloads the full-size asset for a canonical path.
func (c *Client) FetchAsset(ctx context.Context, path string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("asset path required")
	}
	return c.doBytes(ctx, "/api/gallery/asset", url.Values{"path": {path}})
}

// LoadEdit returns the persisted edit for path. The bool is false when the
// server has no edit record, in which case the caller uses defaults.
func (c *Client) LoadEdit(ctx context.Context, path string) (EditRecord, bool, error) {
	if c == nil {
		return EditRecord{}, false, fmt.Errorf("client is nil")
	}
	var rec EditRecord
	err := c.doJSON(ctx, http.MethodGet, "/api/gallery/edits", url.Values{"path": {path}}, nil, &rec)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return EditRecord{Path: path}, false, nil
		}
		return EditRecord{}, false, err
	}
	return rec, true, nil
}

// SaveEdit persists adjustments for path.
func (c *Client) SaveEdit(ctx context.Context, path string, adj Adjustments) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body := EditRecord{Path: path, Adjustments: adj}
	return c.doJSON(ctx, http.MethodPut, "/api/gallery/edits", url.Values{"path": {path}}, body, nil)
}

// DeleteEdit removes the persisted edit for path.
func (c *Client) DeleteEdit(ctx context.Context, path string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/gallery/edits", url.Values{"path": {path}}, nil, nil)
}

// ExtractMetadata runs bulk metadata extraction. Conflicts are reported in
// the result, not as an error.
func (c *Client) ExtractMetadata(ctx context.Context, paths []string, force bool) (ExtractResult, error) {
	if c == nil {
		return ExtractResult{}, fmt.Errorf("client is nil")
	}
	body := struct {
		Paths []string `json:"paths"`
		Force bool     `json:"force"`
	}{Paths: paths, Force: force}
	var payload ExtractResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/gallery/metadata/extract", nil, body, &payload); err != nil {
		return ExtractResult{}, err
	}
	return payload, nil
}

// Delete moves paths to the trash.
func (c *Client) Delete(ctx context.Context, paths []string) (BatchResult, error) {
	return c.batch(ctx, "/api/gallery/delete", paths)
}

// Restore brings trashed paths back.
func (c *Client) Restore(ctx context.Context, paths []string) (BatchResult, error) {
	return c.batch(ctx, "/api/gallery/restore", paths)
}

// Purge permanently deletes paths.
func (c *Client) Purge(ctx context.Context, paths []string) (BatchResult, error) {
	return c.batch(ctx, "/api/gallery/purge", paths)
}

// FetchStats retrieves aggregate counts.
func (c *Client) FetchStats(ctx context.Context) (Counts, error) {
	if c == nil {
		return Counts{}, fmt.Errorf("client is nil")
	}
	var payload Counts
	if err := c.doJSON(ctx, http.MethodGet, "/api/gallery/stats", nil, nil, &payload); err != nil {
		return Counts{}, err
	}
	return payload, nil
}

// batch posts paths and classifies the answer: 207 is success with caveats
// unless nothing succeeded; any other 2xx means every path succeeded.
func (c *Client) batch(ctx context.Context, endpoint string, paths []string) (BatchResult, error) {
	if c == nil {
		return BatchResult{}, fmt.Errorf("client is nil")
	}
	if len(paths) == 0 {
		return BatchResult{}, nil
	}
	body := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}
	resp, err := c.send(ctx, http.MethodPost, endpoint, nil, body)
	if err != nil {
		return BatchResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != statusPartialResult {
		return BatchResult{Succeeded: append([]string(nil), paths...)}, nil
	}
	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return BatchResult{}, fmt.Errorf("decode response: %w", err)
	}
	result.Partial = true
	if len(result.Succeeded) == 0 {
		return result, fmt.Errorf("api %s: %w", endpoint, ErrAllFailed)
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// send executes the request and converts status >= 400 into *APIError.
// Callers own the returned body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	rel := &url.URL{Path: path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Client-Session", c.session)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{Endpoint: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	return resp, nil
}

func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", base, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
