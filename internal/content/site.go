package content

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/uri"
)

// AssetsDirSuffix marks a directory holding the assets of the page of the same name.
const AssetsDirSuffix = "-assets"

var postFilePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})_(.+)$`)

// Site knows where content lives on disk.
type Site struct {
	Routing      uri.Routing
	TemplatesDir string
}

func NewSite(r uri.Routing, templatesDir string) *Site {
	return &Site{Routing: r, TemplatesDir: templatesDir}
}

// PostsDir returns the posts directory if the site has one.
func (s *Site) PostsDir() (string, bool) {
	return dirIfExists(s.Routing.PostsDir)
}

// BlogPostsDir returns the posts directory of blog if it exists.
func (s *Site) BlogPostsDir(blog string) (string, bool) {
	dir, ok := s.PostsDir()
	if !ok {
		return "", false
	}
	if s.Routing.MultiBlog() {
		return dirIfExists(filepath.Join(dir, blog))
	}
	return dir, true
}

// TaxonomyTemplate returns the shared listing source for tags or categories
// if the site defines one.
func (s *Site) TaxonomyTemplate(t model.PageType) (string, bool) {
	name := uri.TagPageName
	if t == model.CategoryListing {
		name = uri.CategoryPageName
	}
	path := filepath.Join(s.Routing.PagesDir, name+s.ext())
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (s *Site) ext() string {
	if s.Routing.ContentExt == "" {
		return ".html"
	}
	return s.Routing.ContentExt
}

// ListPosts enumerates the posts of blog, newest first. Files whose header
// cannot be read are reported to onError and skipped. A blog without a
// posts directory has no posts.
func (s *Site) ListPosts(blog string, onError func(path string, err error)) (model.PostList, error) {
	dir, ok := s.BlogPostsDir(blog)
	if !ok {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var posts model.PostList
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != s.ext() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), s.ext())
		m := postFilePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		header, _, err := ReadFile(path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			continue
		}
		posts = append(posts, &model.BlogPost{
			ContentSource: model.ContentSource{
				Path:    path,
				Type:    model.Post,
				BlogKey: blog,
				Date:    date,
			},
			Slug:   m[4],
			Header: header,
		})
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug > posts[j].Slug
	})
	return posts, nil
}

// PageFile is a file under the pages directory.
type PageFile struct {
	Path string
	// Rel is slash separated and relative to the pages directory.
	Rel string
}

// IsContent reports whether the file is a page source, as opposed to a
// misc file or a taxonomy template.
func (p PageFile) IsContent(ext string) bool {
	if filepath.Ext(p.Rel) != ext {
		return false
	}
	name := strings.TrimSuffix(p.Rel, ext)
	return name != uri.TagPageName && name != uri.CategoryPageName
}

// ListPages walks the pages directory. Page assets directories are not descended into.
func (s *Site) ListPages() ([]PageFile, error) {
	root := s.Routing.PagesDir
	if _, ok := dirIfExists(root); !ok {
		return nil, nil
	}
	var files []PageFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasSuffix(d.Name(), AssetsDirSuffix) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, PageFile{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
	return files, err
}

// PageURI maps a page's relative path to its canonical URI.
func PageURI(rel, ext string) string {
	u := strings.TrimSuffix(rel, ext)
	if u == uri.IndexPageName {
		return ""
	}
	return strings.TrimSuffix(u, "/"+uri.IndexPageName)
}

// AssetsDir returns the assets directory of a page source if present.
func AssetsDir(pagePath string) (string, bool) {
	return dirIfExists(strings.TrimSuffix(pagePath, filepath.Ext(pagePath)) + AssetsDirSuffix)
}

func dirIfExists(dir string) (string, bool) {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return "", false
	}
	return dir, true
}
