package bake

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Bitlatte/oven/internal/content"
	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/uri"
)

// Resolve maps a request URI to the content it names.
func (b *Baker) Resolve(requestURI string) (uri.Info, bool) {
	return b.resolver.Resolve(requestURI)
}

// RenderURI resolves requestURI and renders it in memory, reading posts
// fresh from disk. ErrNotFound is returned when nothing resolves or the
// resolved source does not exist.
func (b *Baker) RenderURI(requestURI string) ([]byte, error) {
	info, ok := b.resolver.Resolve(requestURI)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestURI)
	}
	if !info.WasPathChecked {
		if st, err := os.Stat(info.Path); err != nil || !st.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, info.Path)
		}
	}
	if info.BlogKey == "" {
		info.BlogKey = b.routing.DefaultBlog().Key
	}

	posts, err := b.site.ListPosts(info.BlogKey, nil)
	if err != nil {
		return nil, fmt.Errorf("list posts of %s: %w", info.BlogKey, err)
	}
	switch info.Type {
	case model.TagListing:
		posts = posts.Tagged(info.Key)
	case model.CategoryListing:
		posts = posts.InCategory(info.Key)
	}

	src := info.Source()
	data := b.pageData(src, info.URI, info.PageNumber, b.postItems(posts))
	out, err := b.renderer.Render(src, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", requestURI, err)
	}
	return out, nil
}

// PageAsset maps the public URL of a page asset back to its file in the
// page's assets directory.
func (b *Baker) PageAsset(requestPath string) (string, bool) {
	base := strings.TrimSuffix(b.cfg.BaseURL, "/") + "/"
	p := path.Clean("/" + requestPath)
	if !strings.HasPrefix(p, base) {
		return "", false
	}
	dir, name := path.Split(strings.TrimPrefix(p, base))
	if name == "" {
		return "", false
	}
	page := strings.TrimSuffix(dir, "/")
	candidates := []string{page + "/" + uri.IndexPageName, page}
	if page == "" {
		candidates = []string{uri.IndexPageName}
	}
	for _, c := range candidates {
		src := filepath.Join(b.routing.PagesDir, filepath.FromSlash(c)+content.AssetsDirSuffix, name)
		if st, err := os.Stat(src); err == nil && st.Mode().IsRegular() {
			return src, true
		}
	}
	return "", false
}
