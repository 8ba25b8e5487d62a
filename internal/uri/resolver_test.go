package uri

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitlatte/oven/internal/model"
)

func makeSite(t *testing.T, blogs ...string) Routing {
	t.Helper()
	root := t.TempDir()
	pages := filepath.Join(root, "_content", "pages")
	posts := filepath.Join(root, "_content", "posts")
	require.NoError(t, os.MkdirAll(pages, 0o755))
	require.NoError(t, os.MkdirAll(posts, 0o755))
	for _, name := range []string{"_index", "existing-page"} {
		require.NoError(t, os.WriteFile(filepath.Join(pages, name+".html"), []byte("x"), 0o644))
	}
	if len(blogs) == 0 {
		blogs = []string{DefaultBlogKey}
	}
	r := Routing{PagesDir: pages, PostsDir: posts, ContentExt: ".html"}
	for _, b := range blogs {
		r.Blogs = append(r.Blogs, NewDefaultBlog(b, len(blogs) > 1))
	}
	return r
}

func TestResolve(t *testing.T) {
	r := makeSite(t)
	pages, posts := r.PagesDir, r.PostsDir

	tests := []struct {
		name string
		in   string
		want *Info
	}{
		{"empty", "", &Info{URI: "", PageNumber: 1, Path: filepath.Join(pages, "_index.html"), WasPathChecked: true}},
		{"root", "/", &Info{URI: "", PageNumber: 1, Path: filepath.Join(pages, "_index.html"), WasPathChecked: true}},
		{"root second page", "/2", &Info{URI: "", PageNumber: 2, Path: filepath.Join(pages, "_index.html"), WasPathChecked: true}},
		{"existing page", "/existing-page", &Info{URI: "existing-page", PageNumber: 1, Path: filepath.Join(pages, "existing-page.html"), WasPathChecked: true}},
		{"existing page second page", "/existing-page/2", &Info{URI: "existing-page", PageNumber: 2, Path: filepath.Join(pages, "existing-page.html"), WasPathChecked: true}},
		{"existing page with source ext", "/existing-page.html", &Info{URI: "existing-page", PageNumber: 1, Path: filepath.Join(pages, "existing-page.html"), WasPathChecked: true}},
		{"category", "/blah", &Info{URI: "blah", PageNumber: 1, Type: model.CategoryListing, BlogKey: "blog", Key: "blah", Path: filepath.Join(pages, "_category.html")}},
		{"tag", "/tag/blah", &Info{URI: "tag/blah", PageNumber: 1, Type: model.TagListing, BlogKey: "blog", Key: "blah", Path: filepath.Join(pages, "_tag.html")}},
		{"foreign extension", "/blah.ext", nil},
		{"foreign extension on existing page", "/existing-page.ext", nil},
		{"post", "2011/02/03/some-post", &Info{
			URI: "2011/02/03/some-post", PageNumber: 1, Type: model.Post, BlogKey: "blog",
			Date: time.Date(2011, 2, 3, 0, 0, 0, 0, time.UTC),
			Path: filepath.Join(posts, "2011-02-03_some-post.html"),
		}},
		{"impossible date falls through to nothing", "2011/02/30/some-post", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.in, r)
			if tt.want == nil {
				assert.False(t, ok, "expected no match, got %+v", got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tt.want, got)
		})
	}
}

func TestResolveMultiBlog(t *testing.T) {
	r := makeSite(t, "blogone", "blogtwo")
	for _, key := range []string{"blogone", "blogtwo"} {
		got, ok := Resolve("/"+key+"/2011/02/03/some-post", r)
		require.True(t, ok)
		assert.Equal(t, Info{
			URI: key + "/2011/02/03/some-post", PageNumber: 1, Type: model.Post, BlogKey: key,
			Date: time.Date(2011, 2, 3, 0, 0, 0, 0, time.UTC),
			Path: filepath.Join(r.PostsDir, key, "2011-02-03_some-post.html"),
		}, got)
	}

	got, ok := Resolve("/blogtwo/tag/go", r)
	require.True(t, ok)
	assert.Equal(t, model.TagListing, got.Type)
	assert.Equal(t, "blogtwo", got.BlogKey)
	assert.Equal(t, "go", got.Key)
}

func TestResolveMissingRegularPage(t *testing.T) {
	r := makeSite(t)
	r.Blogs = []Blog{{Key: "blog", PostURL: DefaultPostURL, TagURL: DefaultTagURL, CategoryURL: "category/%category%"}}

	_, ok := Resolve("/non-existing-page", r)
	assert.False(t, ok)
}

func TestResolvePaginationSuffix(t *testing.T) {
	r := makeSite(t)
	for _, u := range []string{"", "existing-page", "tag/blah", "blah", "2011/02/03/some-post"} {
		base, ok := Resolve(u, r)
		require.True(t, ok, u)

		third, ok := Resolve(u+"/3", r)
		require.True(t, ok, u)
		assert.Equal(t, 3, third.PageNumber)
		third.PageNumber = base.PageNumber
		assert.Equal(t, base, third, u)

		first, ok := Resolve(u+"/1", r)
		require.True(t, ok, u)
		assert.Equal(t, base, first, u)
	}
}

func TestPostRoundTrip(t *testing.T) {
	r := makeSite(t, "one", "two")
	res, err := NewResolver(r)
	require.NoError(t, err)

	dates := []time.Time{
		time.Date(2011, 2, 3, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	for _, blog := range r.Blogs {
		for _, d := range dates {
			for _, slug := range []string{"some-post", "x", "v1.2-release"} {
				u := BuildPostURL(blog.PostURL, d, slug)
				info, ok := res.Resolve(u)
				require.True(t, ok, u)
				assert.Equal(t, model.Post, info.Type)
				assert.Equal(t, blog.Key, info.BlogKey)
				assert.True(t, d.Equal(info.Date), u)
				assert.Equal(t, filepath.Join(r.PostsDir, blog.Key, PostFileName(d, slug, ".html")), info.Path)
				assert.False(t, info.WasPathChecked)
			}
		}
	}
}

func TestTaxonomyRoundTrip(t *testing.T) {
	r := makeSite(t)
	blog := r.DefaultBlog()
	for _, key := range []string{"go", "node.js", "two words", "c/c++"} {
		info, ok := Resolve(BuildTagURL(blog.TagURL, key), r)
		require.True(t, ok, key)
		assert.Equal(t, model.TagListing, info.Type)
		assert.Equal(t, key, info.Key)

		// an escaped slash stays within a single segment
		info, ok = Resolve(BuildCategoryURL(blog.CategoryURL, key), r)
		require.True(t, ok, key)
		assert.Equal(t, model.CategoryListing, info.Type)
		assert.Equal(t, key, info.Key)
	}
}

func TestResolveSectionIndex(t *testing.T) {
	r := makeSite(t)
	docs := filepath.Join(r.PagesDir, "docs", "_index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(docs), 0o755))
	require.NoError(t, os.WriteFile(docs, []byte("x"), 0o644))

	for _, in := range []string{"/docs", "/docs/", "/docs/2"} {
		info, ok := Resolve(in, r)
		require.True(t, ok, in)
		assert.Equal(t, model.Regular, info.Type, in)
		assert.Equal(t, "docs", info.URI, in)
		assert.Equal(t, docs, info.Path, in)
		assert.True(t, info.WasPathChecked, in)
	}
}

func TestResolveEscapedNames(t *testing.T) {
	r := makeSite(t)
	page := filepath.Join(r.PagesDir, "my page.html")
	require.NoError(t, os.WriteFile(page, []byte("x"), 0o644))

	info, ok := Resolve("/my%20page", r)
	require.True(t, ok)
	assert.Equal(t, model.Regular, info.Type)
	assert.Equal(t, "my page", info.URI)
	assert.Equal(t, page, info.Path)

	info, ok = Resolve("/2011/02/03/caf%C3%A9", r)
	require.True(t, ok)
	assert.Equal(t, model.Post, info.Type)
	assert.Equal(t, filepath.Join(r.PostsDir, "2011-02-03_café.html"), info.Path)

	_, ok = Resolve("/bad%zzescape", r)
	assert.False(t, ok)
}

func TestResolveStaysInsideContentDirs(t *testing.T) {
	r := makeSite(t)
	outside := filepath.Join(filepath.Dir(filepath.Dir(r.PagesDir)), "secret.html")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	for _, in := range []string{"/../../secret", "/..%2F..%2Fsecret", "/2011/02/03/..%2F..%2F..%2Fsecret"} {
		info, ok := Resolve(in, r)
		if ok {
			assert.NotEqual(t, outside, info.Path, in)
			assert.NotEqual(t, model.Regular, info.Type, in)
		}
	}
}
