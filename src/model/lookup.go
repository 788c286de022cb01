package model

import "math"

// ----------------------------------------------------
// ================ Request ================

// LookupRequest is an immutable query for diagrams by logical name.
type LookupRequest struct {
	name     string
	criteria string
	page     int
	pageSize int
}

// LookupOption customises a LookupRequest at construction time.
type LookupOption func(*LookupRequest)

// WithCriteria attaches a free-form backend criteria string.
func WithCriteria(criteria string) LookupOption {
	return func(r *LookupRequest) {
		r.criteria = criteria
	}
}

// WithPage selects the zero-based result page.
func WithPage(page int) LookupOption {
	return func(r *LookupRequest) {
		if page >= 0 {
			r.page = page
		}
	}
}

// WithPageSize limits the number of results per page. Zero means unbounded.
func WithPageSize(size int) LookupOption {
	return func(r *LookupRequest) {
		if size >= 0 {
			r.pageSize = size
		}
	}
}

// NewLookupRequest builds a request for name. The name is passed through
// unchanged, empty or not.
func NewLookupRequest(name string, opts ...LookupOption) LookupRequest {
	req := LookupRequest{name: name}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func (r LookupRequest) Name() string     { return r.name }
func (r LookupRequest) Criteria() string { return r.criteria }
func (r LookupRequest) Page() int        { return r.page }
func (r LookupRequest) PageSize() int    { return r.pageSize }

// Bounds converts the paging options into an inclusive [start, stop] range.
// stop is -1 when the request is unbounded. A page beyond the int64 range
// yields a window past the end of any collection.
func (r LookupRequest) Bounds() (start, stop int64) {
	if r.pageSize == 0 {
		return 0, -1
	}
	size := int64(r.pageSize)
	if int64(r.page) > (math.MaxInt64-size)/size {
		return math.MaxInt64, math.MaxInt64
	}
	start = int64(r.page) * size
	return start, start + size - 1
}

// ----------------------------------------------------
// ================ Response ================

// DiagramRepresentation is one lookup candidate.
type DiagramRepresentation struct {
	Name            string `json:"name"`
	Title           string `json:"title,omitempty"`
	Path            Path   `json:"path"`
	DefinitionSetID string `json:"definition_set_id,omitempty"`
	Thumbnail       string `json:"thumbnail,omitempty"`
}

// LookupResult lists candidates in backend order. An empty result means
// nothing matched and is not an error.
type LookupResult struct {
	Results []DiagramRepresentation `json:"results"`
	Page    int                     `json:"page"`
	Total   int64                   `json:"total"`
}

// IsEmpty reports whether the result carries no candidates. A nil result
// counts as empty.
func (r *LookupResult) IsEmpty() bool {
	return r == nil || len(r.Results) == 0
}

// First returns the first candidate in backend order.
func (r *LookupResult) First() (DiagramRepresentation, bool) {
	if r.IsEmpty() {
		return DiagramRepresentation{}, false
	}
	return r.Results[0], true
}
