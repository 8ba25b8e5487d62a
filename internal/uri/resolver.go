package uri

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Bitlatte/oven/internal/model"
)

var pageSuffix = regexp.MustCompile(`(?:^|/)(\d+)$`)

var placeholders = []struct {
	token string
	group string
}{
	{"%year%", `(?P<year>\d{4})`},
	{"%month%", `(?P<month>\d{2})`},
	{"%day%", `(?P<day>\d{2})`},
	{"%slug%", `(?P<slug>[^/]+)`},
	{"%tag%", `(?P<tag>[^/]+)`},
	{"%category%", `(?P<category>[^/]+)`},
}

type blogPatterns struct {
	key      string
	post     *regexp.Regexp
	tag      *regexp.Regexp
	category *regexp.Regexp
}

// Resolver maps request paths to content sources. It holds compiled URL
// formats and is safe for concurrent use.
type Resolver struct {
	routing Routing
	blogs   []blogPatterns
}

func NewResolver(r Routing) (*Resolver, error) {
	res := &Resolver{routing: r}
	blogs := r.Blogs
	if len(blogs) == 0 {
		blogs = []Blog{r.DefaultBlog()}
	}
	for _, b := range blogs {
		bp := blogPatterns{key: b.Key}
		var err error
		if bp.post, err = compileFormat(b.PostURL); err != nil {
			return nil, fmt.Errorf("compile post url of blog %q: %w", b.Key, err)
		}
		if bp.tag, err = compileFormat(b.TagURL); err != nil {
			return nil, fmt.Errorf("compile tag url of blog %q: %w", b.Key, err)
		}
		if bp.category, err = compileFormat(b.CategoryURL); err != nil {
			return nil, fmt.Errorf("compile category url of blog %q: %w", b.Key, err)
		}
		res.blogs = append(res.blogs, bp)
	}
	return res, nil
}

// Resolve is a one-shot form of Resolver.Resolve. An invalid URL format
// resolves nothing.
func Resolve(requestURI string, r Routing) (Info, bool) {
	res, err := NewResolver(r)
	if err != nil {
		return Info{}, false
	}
	return res.Resolve(requestURI)
}

// Resolve returns the info for requestURI, or false when nothing matches.
func (r *Resolver) Resolve(requestURI string) (Info, bool) {
	u := strings.Trim(requestURI, "/")
	page := 1
	if m := pageSuffix.FindStringSubmatchIndex(u); m != nil {
		if n, err := strconv.Atoi(u[m[2]:m[3]]); err == nil && n >= 1 {
			page = n
			u = u[:m[0]]
		}
	}

	if u == "" {
		return r.regular("", IndexPageName, page)
	}
	// taxonomy keys are matched escaped, file names unescaped
	plain, err := url.PathUnescape(u)
	if err != nil {
		return Info{}, false
	}

	for _, b := range r.blogs {
		if info, ok := r.matchPost(b, plain, page); ok {
			return info, true
		}
	}

	ext := r.routing.ext()
	if e := path.Ext(u); e != "" && e != ext {
		return Info{}, false
	}
	plain = strings.TrimSuffix(plain, ext)
	u = strings.TrimSuffix(u, ext)

	if info, ok := r.regular(plain, plain, page); ok {
		return info, true
	}
	if info, ok := r.regular(plain, plain+"/"+IndexPageName, page); ok {
		return info, true
	}
	for _, b := range r.blogs {
		if key, ok := matchKey(b.tag, u, "tag"); ok {
			return Info{
				URI:        u,
				PageNumber: page,
				Type:       model.TagListing,
				BlogKey:    b.key,
				Key:        key,
				Path:       filepath.Join(r.routing.PagesDir, TagPageName+ext),
			}, true
		}
	}
	for _, b := range r.blogs {
		if key, ok := matchKey(b.category, u, "category"); ok {
			return Info{
				URI:        u,
				PageNumber: page,
				Type:       model.CategoryListing,
				BlogKey:    b.key,
				Key:        key,
				Path:       filepath.Join(r.routing.PagesDir, CategoryPageName+ext),
			}, true
		}
	}
	return Info{}, false
}

func (r *Resolver) regular(u, name string, page int) (Info, bool) {
	candidate := filepath.Join(r.routing.PagesDir, filepath.FromSlash(name)+r.routing.ext())
	if !within(r.routing.PagesDir, candidate) {
		return Info{}, false
	}
	st, err := os.Stat(candidate)
	if err != nil || !st.Mode().IsRegular() {
		return Info{}, false
	}
	return Info{
		URI:            u,
		PageNumber:     page,
		Type:           model.Regular,
		Path:           candidate,
		WasPathChecked: true,
	}, true
}

func (r *Resolver) matchPost(b blogPatterns, u string, page int) (Info, bool) {
	m := b.post.FindStringSubmatch(u)
	if m == nil {
		return Info{}, false
	}
	year := m[b.post.SubexpIndex("year")]
	month := m[b.post.SubexpIndex("month")]
	day := m[b.post.SubexpIndex("day")]
	slug := m[b.post.SubexpIndex("slug")]
	date, ok := parseDate(year, month, day)
	if !ok {
		return Info{}, false
	}
	dir := r.routing.PostsDir
	if r.routing.MultiBlog() {
		dir = filepath.Join(dir, b.key)
	}
	file := filepath.Join(dir, PostFileName(date, slug, r.routing.ext()))
	if !within(dir, file) {
		return Info{}, false
	}
	return Info{
		URI:        u,
		PageNumber: page,
		Type:       model.Post,
		BlogKey:    b.key,
		Date:       date,
		Path:       file,
	}, true
}

// PostFileName is the flat on-disk name of a post.
func PostFileName(date time.Time, slug, ext string) string {
	return fmt.Sprintf("%s_%s%s", date.Format("2006-01-02"), slug, ext)
}

// within reports whether p stays inside dir once cleaned.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func parseDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// reject dates time.Date had to normalize, e.g. 02/30
	if date.Month() != time.Month(m) || date.Day() != d {
		return time.Time{}, false
	}
	return date, true
}

func matchKey(re *regexp.Regexp, u, group string) (string, bool) {
	m := re.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	idx := re.SubexpIndex(group)
	if idx < 0 {
		return "", false
	}
	key, err := url.PathUnescape(m[idx])
	if err != nil {
		return "", false
	}
	return key, true
}

func compileFormat(format string) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(strings.Trim(format, "/"))
	for _, p := range placeholders {
		expr = strings.ReplaceAll(expr, p.token, p.group)
	}
	return regexp.Compile("^" + expr + "$")
}
