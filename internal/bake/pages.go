package bake

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/content"
	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/uri"
)

// bakeSource renders src at u and writes every page of it. Further pages are
// only produced while the render reads pagination data and more posts remain.
// It reports whether any render read pagination data.
func (b *Baker) bakeSource(src model.ContentSource, u string, posts model.PostList) (bool, error) {
	items := b.postItems(posts)
	usedPosts := false
	for n := 1; ; n++ {
		data := b.pageData(src, u, n, items)
		out, err := b.renderer.Render(src, data)
		if err != nil {
			return usedPosts, fmt.Errorf("render page %d: %w", n, err)
		}
		dst := b.paths.OutputPath(u, n)
		if err := writeOutput(dst, out); err != nil {
			return usedPosts, err
		}
		b.summary.add(src.Path, dst)
		b.metrics.IncBaked(src.Type.String())

		if !b.renderer.WasPaginationDataAccessed() {
			break
		}
		usedPosts = true
		if n*b.perPage() >= len(items) {
			break
		}
		b.logger.Debug("baking next page", zap.String("uri", u), zap.Int("page", n+1))
	}
	return usedPosts, nil
}

func (b *Baker) perPage() int {
	if b.cfg.Site.PostsPerPage < 1 {
		return 5
	}
	return b.cfg.Site.PostsPerPage
}

func writeOutput(dst string, out []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func (b *Baker) postItems(posts model.PostList) []model.PostItem {
	items := make([]model.PostItem, 0, len(posts))
	for _, p := range posts {
		blog, ok := b.routing.Blog(p.BlogKey)
		if !ok {
			blog = b.routing.DefaultBlog()
		}
		items = append(items, model.PostItem{
			Title:    p.Header.Title,
			URL:      b.paths.URL(uri.BuildPostURL(blog.PostURL, p.Date, p.Slug), 1),
			Slug:     p.Slug,
			Date:     p.Date,
			Tags:     p.Header.Tags,
			Category: p.Header.Category,
			Params:   p.Header.Params,
		})
	}
	return items
}

func (b *Baker) pageData(src model.ContentSource, u string, n int, items []model.PostItem) *model.PageData {
	page := model.PageInfo{
		URI:        u,
		URL:        b.paths.URL(u, n),
		Type:       src.Type,
		BlogKey:    src.BlogKey,
		Key:        src.Key,
		Date:       src.Date,
		PageNumber: n,
	}
	site := model.SiteInfo{Title: b.cfg.Site.Title, BaseURL: b.cfg.BaseURL}
	data := model.NewPageData(site, page, items, b.perPage(), func(k int) string {
		return b.paths.URL(u, k)
	})
	if src.Type == model.Regular {
		b.addPageAssets(data, src.Path, u)
	}
	return data
}

// addPageAssets exposes the files of a page's assets directory by name.
func (b *Baker) addPageAssets(data *model.PageData, pagePath, u string) {
	dir, ok := content.AssetsDir(pagePath)
	if !ok {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			data.Assets[e.Name()] = b.paths.AssetURL(u, e.Name())
		}
	}
}
