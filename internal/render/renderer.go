package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/content"
	"github.com/Bitlatte/oven/internal/model"
)

const (
	DefaultLayout = "default"
	PostLayout    = "post"
	NoLayout      = "none"
)

var templateExtensions = []string{".html", ".tpl", ".tmpl"}

// NewMarkdown is the goldmark setup shared by pages and markdown assets.
func NewMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// Renderer turns a content file plus a data context into HTML. The page body
// is itself a template, then formatted, then wrapped in a layout from the
// templates directory.
type Renderer struct {
	layouts  *template.Template
	md       goldmark.Markdown
	cache    *Cache
	logger   *zap.Logger
	accessed bool
}

// New parses every layout under templatesDir. A missing directory means no layouts.
func New(templatesDir string, cache *Cache, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	layouts, err := loadLayouts(templatesDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		layouts: layouts,
		md:      NewMarkdown(),
		cache:   cache,
		logger:  logger.With(zap.String("component", "renderer")),
	}, nil
}

func loadLayouts(dir string) (*template.Template, error) {
	root := template.New("layouts")
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return root, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExt(path, templateExtensions...) {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		if _, err := root.New(name).Parse(string(b)); err != nil {
			return fmt.Errorf("parse layout %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load layouts from %s: %w", dir, err)
	}
	return root, nil
}

func hasExt(path string, exts ...string) bool {
	e := filepath.Ext(path)
	for _, x := range exts {
		if e == x {
			return true
		}
	}
	return false
}

// Render renders src with data. Whether the templates touched pagination is
// available afterwards from WasPaginationDataAccessed.
func (r *Renderer) Render(src model.ContentSource, data *model.PageData) ([]byte, error) {
	r.accessed = false
	header, body, err := content.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Path, err)
	}
	if data.Page.Title == "" {
		data.Page.Title = header.Title
	}
	if data.Page.Params == nil {
		data.Page.Params = header.Params
	}

	bodyTpl, err := template.New(filepath.Base(src.Path)).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Path, err)
	}
	var text bytes.Buffer
	if err := bodyTpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", src.Path, err)
	}

	formatted, err := r.format(src.Path, header.Format, text.Bytes())
	if err != nil {
		return nil, err
	}
	data.Content = template.HTML(formatted)

	out := formatted
	if layout := r.layoutFor(src.Type, header.Layout); layout != nil {
		var buf bytes.Buffer
		if err := layout.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute layout %s for %s: %w", layout.Name(), src.Path, err)
		}
		out = buf.Bytes()
	}
	r.accessed = data.PaginationAccessed()
	return out, nil
}

func (r *Renderer) WasPaginationDataAccessed() bool {
	return r.accessed
}

func (r *Renderer) format(source, format string, text []byte) ([]byte, error) {
	switch format {
	case "none", "html":
		return text, nil
	case "markdown", "md", "":
	default:
		r.logger.Warn("unknown format, leaving text as is", zap.String("format", format), zap.String("source", source))
		return text, nil
	}

	key := cacheKey(source, text)
	if b, ok := r.cache.Get(key); ok {
		return b, nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert(text, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown of %s: %w", source, err)
	}
	if err := r.cache.Put(key, buf.Bytes()); err != nil {
		r.logger.Warn("could not write render cache", zap.String("source", source), zap.Error(err))
	}
	return buf.Bytes(), nil
}

func (r *Renderer) layoutFor(t model.PageType, name string) *template.Template {
	if name == NoLayout {
		return nil
	}
	if name == "" {
		name = DefaultLayout
		if t == model.Post {
			name = PostLayout
		}
	}
	if tpl := r.layouts.Lookup(name); tpl != nil {
		return tpl
	}
	if name == PostLayout {
		if tpl := r.layouts.Lookup(DefaultLayout); tpl != nil {
			return tpl
		}
	}
	r.logger.Debug("layout not found, rendering without one", zap.String("layout", name))
	return nil
}
