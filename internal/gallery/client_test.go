package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestThumbnailQuery_ForceAddsCacheBuster(t *testing.T) {
	req := ThumbnailRequest{Filename: "a.png", Subfolder: "out", Modified: 42}
	q := ThumbnailQuery(req)
	if q.Get("force") != "" || q.Get("t") != "" {
		t.Fatalf("query = %v, want no force params", q)
	}
	if q.Get("filename") != "a.png" || q.Get("subfolder") != "out" || q.Get("mtime") != "42" {
		t.Fatalf("query = %v, want filename/subfolder/mtime", q)
	}

	req.Force = true
	req.Bust = 1700
	q = ThumbnailQuery(req)
	if q.Get("force") != "true" || q.Get("t") != "1700" {
		t.Fatalf("query = %v, want force=true t=1700", q)
	}

	req.Bust = 0
	q = ThumbnailQuery(req)
	if q.Get("t") == "" {
		t.Fatalf("query = %v, want generated cache buster", q)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, WithThumbnailRate(0))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestClient_ListAndPrioritize(t *testing.T) {
	t.Parallel()

	var gotFilter FilterCriteria
	var gotPrioritize struct {
		Paths   []string `json:"paths"`
		Context string   `json:"context"`
	}
	var gotSession, gotRequestID string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Client-Session")
		gotRequestID = r.Header.Get("X-Request-ID")
		switch r.URL.Path {
		case "/api/gallery/images":
			_ = json.NewDecoder(r.Body).Decode(&gotFilter)
			_ = json.NewEncoder(w).Encode(ListResponse{
				Images: []Image{{Path: "out/a.png", Filename: "a.png"}},
				Counts: Counts{Total: 10, Filtered: 1, ThumbnailsGenerated: 7},
			})
		case "/api/gallery/thumbnails/prioritize":
			_ = json.NewDecoder(r.Body).Decode(&gotPrioritize)
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := c.ListImages(ctx, FilterCriteria{Search: "cat"})
	if err != nil {
		t.Fatalf("ListImages returned error: %v", err)
	}
	if len(resp.Images) != 1 || resp.Filtered != 1 || resp.Total != 10 || resp.ThumbnailsGenerated != 7 {
		t.Fatalf("ListImages = %#v, want one image with counts", resp)
	}
	if gotFilter.Search != "cat" || gotFilter.SearchIn != SearchFilename || gotFilter.Sort != SortNewest {
		t.Fatalf("filter body = %#v, want normalized defaults", gotFilter)
	}
	if gotSession != c.Session() || gotRequestID == "" {
		t.Fatalf("headers session=%q request=%q, want session and request id", gotSession, gotRequestID)
	}

	if err := c.PrioritizeThumbnails(ctx, []string{"a", "b"}, "gallery"); err != nil {
		t.Fatalf("PrioritizeThumbnails returned error: %v", err)
	}
	if len(gotPrioritize.Paths) != 2 || gotPrioritize.Context != "gallery" {
		t.Fatalf("prioritize body = %#v, want 2 paths with context", gotPrioritize)
	}
}

func TestClient_FetchThumbnailErrorCarriesBody(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if r.URL.Query().Get("filename") == "broken.png" {
			http.Error(w, "thumbnail generation failed: unsupported codec", http.StatusUnprocessableEntity)
			return
		}
		_, _ = w.Write([]byte("PNGDATA"))
	}))

	data, err := c.FetchThumbnail(context.Background(), ThumbnailRequest{Filename: "ok.png", Force: true, Bust: 5})
	if err != nil {
		t.Fatalf("FetchThumbnail returned error: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Fatalf("FetchThumbnail = %q, want PNGDATA", data)
	}
	if gotQuery.Get("force") != "true" || gotQuery.Get("t") != "5" {
		t.Fatalf("query = %v, want force=true&t=5", gotQuery)
	}

	_, err = c.FetchThumbnail(context.Background(), ThumbnailRequest{Filename: "broken.png"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FetchThumbnail error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", apiErr.Status)
	}
	if Message(err) != "thumbnail generation failed: unsupported codec" {
		t.Fatalf("Message = %q, want server body", Message(err))
	}
}

func TestClient_LoadEditMissingReturnsDefaultsFlag(t *testing.T) {
	t.Parallel()

	var saved EditRecord
	var deleted bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("path") == "missing":
			http.NotFound(w, r)
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(EditRecord{Path: "x", Adjustments: Adjustments{Brightness: 1.3, Contrast: 1, Saturation: 1}})
		case r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&saved)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	ctx := context.Background()
	_, found, err := c.LoadEdit(ctx, "missing")
	if err != nil || found {
		t.Fatalf("LoadEdit(missing) = found=%v err=%v, want not found and nil error", found, err)
	}
	rec, found, err := c.LoadEdit(ctx, "x")
	if err != nil || !found || rec.Adjustments.Brightness != 1.3 {
		t.Fatalf("LoadEdit(x) = %#v found=%v err=%v", rec, found, err)
	}
	if err := c.SaveEdit(ctx, "x", Adjustments{Brightness: 2}); err != nil {
		t.Fatalf("SaveEdit returned error: %v", err)
	}
	if saved.Path != "x" || saved.Adjustments.Brightness != 2 {
		t.Fatalf("saved = %#v, want path x brightness 2", saved)
	}
	if err := c.DeleteEdit(ctx, "x"); err != nil || !deleted {
		t.Fatalf("DeleteEdit err=%v deleted=%v", err, deleted)
	}
}

func TestClient_BatchPartialSuccess(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/gallery/delete":
			w.WriteHeader(http.StatusOK)
		case "/api/gallery/restore":
			w.WriteHeader(http.StatusMultiStatus)
			_ = json.NewEncoder(w).Encode(BatchResult{
				Succeeded: []string{"a"},
				Failed:    []FailedItem{{Path: "b", Error: "locked"}},
			})
		case "/api/gallery/purge":
			w.WriteHeader(http.StatusMultiStatus)
			_ = json.NewEncoder(w).Encode(BatchResult{Failed: []FailedItem{{Path: "a", Error: "locked"}}})
		}
	}))

	ctx := context.Background()
	res, err := c.Delete(ctx, []string{"a", "b"})
	if err != nil || !res.OK() || len(res.Succeeded) != 2 {
		t.Fatalf("Delete = %#v err=%v, want full success", res, err)
	}

	res, err = c.Restore(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if !res.Partial || res.OK() || len(res.Failed) != 1 || res.Failed[0].Path != "b" {
		t.Fatalf("Restore = %#v, want partial with b failed", res)
	}

	_, err = c.Purge(ctx, []string{"a"})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Purge error = %v, want ErrAllFailed", err)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/gallery/stats":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/gallery/metadata/extract":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))

	_, err := c.FetchStats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStats error = %v, want decode response error", err)
	}

	_, err = c.ExtractMetadata(context.Background(), []string{"a"}, false)
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("ExtractMetadata error = %v, want status 500 error", err)
	}
}

func TestFilterCriteria_EqualUsesDefaults(t *testing.T) {
	a := FilterCriteria{Search: "x"}
	b := FilterCriteria{Search: "x", SearchIn: SearchFilename, Sort: SortNewest}
	if !a.Equal(b) {
		t.Fatalf("Equal = false, want true for defaulted fields")
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.From = &from
	if a.Equal(b) {
		t.Fatalf("Equal = true, want false when From differs")
	}
	c := b.Clone()
	c.From = nil
	if b.From == nil {
		t.Fatalf("Clone shares From pointer")
	}
}
