package gallery

import (
	"slices"
	"time"
)

// Image mirrors one record returned by /api/gallery/images. Path is the
// canonical identity key.
type Image struct {
	Path        string   `json:"path"`
	Filename    string   `json:"filename"`
	Subfolder   string   `json:"subfolder"`
	Format      string   `json:"format"`
	Modified    int64    `json:"mtime"`
	Trashed     bool     `json:"trashed"`
	HasEdit     bool     `json:"has_edit"`
	HasWorkflow bool     `json:"has_workflow"`
	HasPrompt   bool     `json:"has_prompt"`
	Tags        []string `json:"tags,omitempty"`
}

// ModifiedTime returns the modification time as time.Time.
func (i Image) ModifiedTime() time.Time {
	if i.Modified <= 0 {
		return time.Time{}
	}
	return time.Unix(i.Modified, 0)
}

// Clone returns a copy that shares no slices with i.
func (i Image) Clone() Image {
	dup := i
	dup.Tags = slices.Clone(i.Tags)
	return dup
}

// SearchScope selects which text the free-text search matches against.
type SearchScope string

const (
	SearchFilename SearchScope = "filename"
	SearchPrompt   SearchScope = "prompt"
	SearchWorkflow SearchScope = "workflow"
)

// SortOrder controls list ordering on the server.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortName   SortOrder = "name"
)

// FilterCriteria is the body of a list request. The zero value lists every
// non-trashed image, newest first, with filename search.
type FilterCriteria struct {
	Folders     []string    `json:"folders,omitempty"`
	Formats     []string    `json:"formats,omitempty"`
	From        *time.Time  `json:"from,omitempty"`
	To          *time.Time  `json:"to,omitempty"`
	Search      string      `json:"search,omitempty"`
	SearchIn    SearchScope `json:"search_in,omitempty"`
	HasWorkflow bool        `json:"has_workflow,omitempty"`
	HasPrompt   bool        `json:"has_prompt,omitempty"`
	HasEdits    bool        `json:"has_edits,omitempty"`
	HasTags     bool        `json:"has_tags,omitempty"`
	ShowTrashed bool        `json:"show_trashed,omitempty"`
	Sort        SortOrder   `json:"sort,omitempty"`
}

// Normalized fills documented defaults.
func (f FilterCriteria) Normalized() FilterCriteria {
	out := f.Clone()
	if out.SearchIn == "" {
		out.SearchIn = SearchFilename
	}
	if out.Sort == "" {
		out.Sort = SortNewest
	}
	return out
}

// Clone returns a deep copy.
func (f FilterCriteria) Clone() FilterCriteria {
	dup := f
	dup.Folders = slices.Clone(f.Folders)
	dup.Formats = slices.Clone(f.Formats)
	if f.From != nil {
		t := *f.From
		dup.From = &t
	}
	if f.To != nil {
		t := *f.To
		dup.To = &t
	}
	return dup
}

// Equal reports whether two criteria describe the same request.
func (f FilterCriteria) Equal(o FilterCriteria) bool {
	a, b := f.Normalized(), o.Normalized()
	if !slices.Equal(a.Folders, b.Folders) || !slices.Equal(a.Formats, b.Formats) {
		return false
	}
	if !timePtrEqual(a.From, b.From) || !timePtrEqual(a.To, b.To) {
		return false
	}
	return a.Search == b.Search &&
		a.SearchIn == b.SearchIn &&
		a.HasWorkflow == b.HasWorkflow &&
		a.HasPrompt == b.HasPrompt &&
		a.HasEdits == b.HasEdits &&
		a.HasTags == b.HasTags &&
		a.ShowTrashed == b.ShowTrashed &&
		a.Sort == b.Sort
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Counts are the aggregate numbers reported with every list and stats response.
type Counts struct {
	Total               int `json:"total"`
	Filtered            int `json:"filtered"`
	ThumbnailsGenerated int `json:"thumbnails_generated"`
}

// ListResponse mirrors /api/gallery/images.
type ListResponse struct {
	Images []Image `json:"images"`
	Counts
}

// ThumbnailRequest addresses one thumbnail asset.
type ThumbnailRequest struct {
	Filename  string
	Subfolder string
	Modified  int64
	// Force bypasses every cache and asks the server to regenerate.
	Force bool
	// Bust is a cache-busting token, usually a millisecond timestamp.
	Bust int64
}

// ThumbnailFor builds the request for an image.
func ThumbnailFor(img Image) ThumbnailRequest {
	return ThumbnailRequest{Filename: img.Filename, Subfolder: img.Subfolder, Modified: img.Modified}
}

// CacheKey identifies the thumbnail independent of force/bust flags.
func (r ThumbnailRequest) CacheKey() string {
	return r.Subfolder + "/" + r.Filename + "@" + itoa(r.Modified)
}

// Temporal carries playback adjustments for animated assets.
type Temporal struct {
	Speed     float64 `json:"speed"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

// Adjustments are the non-destructive edit parameters. Neutral values are
// 1.0 for the multiplicative visual parameters and nil Temporal.
type Adjustments struct {
	Brightness float64   `json:"brightness"`
	Contrast   float64   `json:"contrast"`
	Saturation float64   `json:"saturation"`
	Temporal   *Temporal `json:"temporal,omitempty"`
}

// EditRecord mirrors /api/gallery/edits.
type EditRecord struct {
	Path        string      `json:"path"`
	Adjustments Adjustments `json:"adjustments"`
}

// FailedItem reports one path a bulk operation could not process.
type FailedItem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Conflict is a per-item ambiguity that needs a user decision.
type Conflict struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ExtractResult mirrors /api/gallery/metadata/extract.
type ExtractResult struct {
	Succeeded []string     `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
	Conflicts []Conflict   `json:"conflicts"`
}

// BatchResult is the outcome of delete/restore/purge.
type BatchResult struct {
	Succeeded []string     `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
	// Partial is set when the server answered 207.
	Partial bool `json:"-"`
}

// OK reports whether every requested path succeeded.
func (b BatchResult) OK() bool {
	return !b.Partial && len(b.Failed) == 0
}
