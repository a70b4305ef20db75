package pagination

import (
	"net/url"
	"strconv"

	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or per_page are not provided.
func (p *PageRequest) Defaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// Links holds the URLs of the neighbouring pages, nil at either end.
type Links struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data  []T   `json:"data"`
	Meta  Meta  `json:"meta"`
	Links Links `json:"links"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, perPage int, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	meta := Meta{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
	if len(data) > 0 {
		meta.From = (page-1)*perPage + 1
		meta.To = meta.From + len(data) - 1
	}
	return PageResponse[T]{Data: data, Meta: meta}
}

// WithLinks fills prev/next from the request URL, keeping every other query
// parameter so filters survive paging.
func (r PageResponse[T]) WithLinks(u *url.URL) PageResponse[T] {
	link := func(page int) *string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(r.Meta.PerPage))
		next := *u
		next.RawQuery = q.Encode()
		s := next.String()
		return &s
	}
	r.Links = Links{}
	if r.Meta.CurrentPage > 1 {
		r.Links.Prev = link(r.Meta.CurrentPage - 1)
	}
	if r.Meta.CurrentPage < r.Meta.LastPage {
		r.Links.Next = link(r.Meta.CurrentPage + 1)
	}
	return r
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PerPage)
	}
}
