package model

import (
	"html/template"
	"time"
)

type SiteInfo struct {
	Title   string
	BaseURL string
}

type PageInfo struct {
	URI        string
	URL        string
	Title      string
	Type       PageType
	BlogKey    string
	Key        string
	Date       time.Time
	PageNumber int
	Params     map[string]interface{}
}

// PostItem is the template view of a post in a listing.
type PostItem struct {
	Title    string
	URL      string
	Slug     string
	Date     time.Time
	Tags     []string
	Category string
	Params   map[string]interface{}
}

// PageData is the data context handed to the renderer. Templates reach post
// listings only through Pagination, which records that they did.
type PageData struct {
	Site    SiteInfo
	Page    PageInfo
	Assets  map[string]string
	Content template.HTML

	posts    []PostItem
	perPage  int
	pageURL  func(n int) string
	accessed bool
}

// NewPageData binds a page to the post set its pagination exposes. pageURL
// builds the link of sibling page n.
func NewPageData(site SiteInfo, page PageInfo, posts []PostItem, perPage int, pageURL func(n int) string) *PageData {
	if page.PageNumber < 1 {
		page.PageNumber = 1
	}
	if perPage < 1 {
		perPage = 5
	}
	return &PageData{
		Site:    site,
		Page:    page,
		Assets:  map[string]string{},
		posts:   posts,
		perPage: perPage,
		pageURL: pageURL,
	}
}

// Pagination returns the slice of posts for the current page number.
func (d *PageData) Pagination() *Paginator {
	d.accessed = true
	return newPaginator(d.posts, d.Page.PageNumber, d.perPage, d.pageURL)
}

// PaginationAccessed reports whether any template touched Pagination.
func (d *PageData) PaginationAccessed() bool {
	return d.accessed
}

type Paginator struct {
	Posts      []PostItem
	Page       int
	TotalPages int
	TotalPosts int
	HasMore    bool
	NextURL    string
	PrevURL    string
}

func newPaginator(posts []PostItem, page, perPage int, pageURL func(int) string) *Paginator {
	total := (len(posts) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}
	p := &Paginator{
		Page:       page,
		TotalPages: total,
		TotalPosts: len(posts),
		HasMore:    page < total,
	}
	start := (page - 1) * perPage
	if start < len(posts) {
		end := start + perPage
		if end > len(posts) {
			end = len(posts)
		}
		p.Posts = posts[start:end]
	}
	if pageURL != nil {
		if p.HasMore {
			p.NextURL = pageURL(page + 1)
		}
		if page > 1 {
			p.PrevURL = pageURL(page - 1)
		}
	}
	return p
}
