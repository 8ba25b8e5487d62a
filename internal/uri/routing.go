package uri

import (
	"time"

	"github.com/Bitlatte/oven/internal/model"
)

const (
	IndexPageName    = "_index"
	TagPageName      = "_tag"
	CategoryPageName = "_category"

	DefaultBlogKey = "blog"
)

// Blog holds the URL formats of one post stream.
type Blog struct {
	Key         string
	PostURL     string
	TagURL      string
	CategoryURL string
}

const (
	DefaultPostURL     = "%year%/%month%/%day%/%slug%"
	DefaultTagURL      = "tag/%tag%"
	DefaultCategoryURL = "%category%"
)

// NewDefaultBlog returns a blog using the default URL formats, prefixed with
// the blog key on multi-blog sites.
func NewDefaultBlog(key string, multi bool) Blog {
	prefix := ""
	if multi {
		prefix = key + "/"
	}
	return Blog{
		Key:         key,
		PostURL:     prefix + DefaultPostURL,
		TagURL:      prefix + DefaultTagURL,
		CategoryURL: prefix + DefaultCategoryURL,
	}
}

// Routing is everything the resolver needs to know about a site.
type Routing struct {
	PagesDir   string
	PostsDir   string
	ContentExt string
	Blogs      []Blog
}

func (r Routing) MultiBlog() bool {
	return len(r.Blogs) > 1
}

// Blog returns the blog with the given key.
func (r Routing) Blog(key string) (Blog, bool) {
	for _, b := range r.Blogs {
		if b.Key == key {
			return b, true
		}
	}
	return Blog{}, false
}

// DefaultBlog is the first configured blog, or the implicit one.
func (r Routing) DefaultBlog() Blog {
	if len(r.Blogs) == 0 {
		return NewDefaultBlog(DefaultBlogKey, false)
	}
	return r.Blogs[0]
}

func (r Routing) ext() string {
	if r.ContentExt == "" {
		return ".html"
	}
	return r.ContentExt
}

// Info is the structural metadata of a resolved request path.
type Info struct {
	// URI is canonical: no surrounding slashes, no page suffix.
	URI        string
	PageNumber int
	Type       model.PageType
	BlogKey    string
	Key        string
	// Date is midnight UTC of the post date, zero for non-posts.
	Date time.Time
	Path string
	// WasPathChecked is false when existence of Path was inferred from the
	// URI shape rather than checked on disk.
	WasPathChecked bool
}

// Source converts the resolved info into the content source it names.
func (i Info) Source() model.ContentSource {
	return model.ContentSource{
		Path:    i.Path,
		Type:    i.Type,
		BlogKey: i.BlogKey,
		Date:    i.Date,
		Key:     i.Key,
	}
}
