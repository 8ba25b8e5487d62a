package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/uri"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newSite(t *testing.T, blogs ...string) *Site {
	t.Helper()
	root := t.TempDir()
	r := uri.Routing{
		PagesDir:   filepath.Join(root, "pages"),
		PostsDir:   filepath.Join(root, "posts"),
		ContentExt: ".html",
	}
	for _, b := range blogs {
		r.Blogs = append(r.Blogs, uri.NewDefaultBlog(b, len(blogs) > 1))
	}
	return NewSite(r, filepath.Join(root, "templates"))
}

func TestParseHeader(t *testing.T) {
	h, body, err := ParseHeader([]byte("---\ntitle: Hello\ntags: [go, web]\ncategory: code\nlayout: wide\n---\nBody"), "x")
	require.NoError(t, err)
	assert.Equal(t, "Hello", h.Title)
	assert.Equal(t, []string{"go", "web"}, h.Tags)
	assert.Equal(t, "code", h.Category)
	assert.Equal(t, "wide", h.Layout)
	assert.Equal(t, "markdown", h.Format)
	assert.Equal(t, "Body", strings.TrimSpace(string(body)))

	h, _, err = ParseHeader([]byte("---\ntags: go, web\nformat: none\n---\n"), "my-first_post")
	require.NoError(t, err)
	assert.Equal(t, "My First Post", h.Title)
	assert.Equal(t, []string{"go", "web"}, h.Tags)
	assert.Equal(t, "none", h.Format)

	h, body, err = ParseHeader([]byte("no header here"), "plain")
	require.NoError(t, err)
	assert.Equal(t, "Plain", h.Title)
	assert.Equal(t, "no header here", strings.TrimSpace(string(body)))
}

func TestPostsDirAbsent(t *testing.T) {
	s := newSite(t, "blog")
	_, ok := s.PostsDir()
	assert.False(t, ok)

	posts, err := s.ListPosts("blog", nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListPosts(t *testing.T) {
	s := newSite(t, "blog")
	write(t, filepath.Join(s.Routing.PostsDir, "2011-02-03_older.html"), "---\ntags: [a]\n---\nx")
	write(t, filepath.Join(s.Routing.PostsDir, "2012-01-01_newer.html"), "---\ncategory: c\n---\ny")
	write(t, filepath.Join(s.Routing.PostsDir, "notes.txt"), "ignored")
	write(t, filepath.Join(s.Routing.PostsDir, "not-a-post.html"), "ignored")
	write(t, filepath.Join(s.Routing.PostsDir, "2012-05-05_broken.html"), "---\ntags: [unclosed\n---\n")

	var failed []string
	posts, err := s.ListPosts("blog", func(path string, err error) {
		failed = append(failed, filepath.Base(path))
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Slug)
	assert.Equal(t, "older", posts[1].Slug)
	assert.Equal(t, model.Post, posts[1].Type)
	assert.Equal(t, "blog", posts[1].BlogKey)
	assert.Equal(t, 2011, posts[1].Date.Year())
	assert.Equal(t, []string{"a"}, posts[1].Header.Tags)
	assert.Equal(t, []string{"2012-05-05_broken.html"}, failed)
}

func TestListPostsMultiBlog(t *testing.T) {
	s := newSite(t, "one", "two")
	write(t, filepath.Join(s.Routing.PostsDir, "one", "2011-02-03_a.html"), "a")
	write(t, filepath.Join(s.Routing.PostsDir, "two", "2011-02-03_b.html"), "b")

	posts, err := s.ListPosts("two", nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].Slug)
	assert.Equal(t, "two", posts[0].BlogKey)
}

func TestListPages(t *testing.T) {
	s := newSite(t, "blog")
	write(t, filepath.Join(s.Routing.PagesDir, "_index.html"), "")
	write(t, filepath.Join(s.Routing.PagesDir, "_tag.html"), "")
	write(t, filepath.Join(s.Routing.PagesDir, "about", "me.html"), "")
	write(t, filepath.Join(s.Routing.PagesDir, "about", "me-assets", "pic.png"), "")
	write(t, filepath.Join(s.Routing.PagesDir, "robots.txt"), "")

	files, err := s.ListPages()
	require.NoError(t, err)

	var content, misc []string
	for _, f := range files {
		if f.IsContent(".html") {
			content = append(content, f.Rel)
		} else {
			misc = append(misc, f.Rel)
		}
	}
	assert.ElementsMatch(t, []string{"_index.html", "about/me.html"}, content)
	assert.ElementsMatch(t, []string{"_tag.html", "robots.txt"}, misc)

	assert.Equal(t, "", PageURI("_index.html", ".html"))
	assert.Equal(t, "about/me", PageURI("about/me.html", ".html"))
	assert.Equal(t, "docs", PageURI("docs/_index.html", ".html"))
	assert.Equal(t, "docs/my_index", PageURI("docs/my_index.html", ".html"))

	dir, ok := AssetsDir(filepath.Join(s.Routing.PagesDir, "about", "me.html"))
	require.True(t, ok)
	assert.Equal(t, "me-assets", filepath.Base(dir))

	_, ok = s.TaxonomyTemplate(model.TagListing)
	assert.True(t, ok)
	_, ok = s.TaxonomyTemplate(model.CategoryListing)
	assert.False(t, ok)
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.html"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
