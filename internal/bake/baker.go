package bake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/assets"
	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/content"
	"github.com/Bitlatte/oven/internal/dirbake"
	"github.com/Bitlatte/oven/internal/metrics"
	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/record"
	"github.com/Bitlatte/oven/internal/uri"
)

var (
	ErrOutputDir = errors.New("output directory must exist and be writable")
	ErrNotFound  = errors.New("content not found")
)

// Stage is the position of a pass in the bake state machine.
type Stage int

const (
	StageInit Stage = iota
	StagePosts
	StagePages
	StageTags
	StageCategories
	StageAssets
	StageFinalizing
	StageDone
)

var stageNames = [...]string{
	"INIT", "BAKING_POSTS", "BAKING_PAGES", "BAKING_TAGS",
	"BAKING_CATEGORIES", "BAKING_ASSETS", "FINALIZING", "DONE",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

const (
	StalenessMtime = "mtime"
	StalenessHash  = "hash"
)

type Options struct {
	Smart         bool
	CopyAssets    bool
	CopyMisc      bool
	Staleness     string
	SkipPatterns  []string
	ForcePatterns []string
}

func OptionsFromConfig(c config.BakerConfig) Options {
	return Options{
		Smart:         c.Smart,
		CopyAssets:    c.CopyAssets,
		CopyMisc:      c.CopyMisc,
		Staleness:     c.Staleness,
		SkipPatterns:  c.SkipPatterns,
		ForcePatterns: c.ForcePatterns,
	}
}

// Deps are the collaborators of a Baker. Only Renderer is required.
type Deps struct {
	Renderer Renderer
	Assets   AssetProcessor
	Cache    CachePurger
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// Out receives the human readable timing summary.
	Out io.Writer
}

type nopCache struct{}

func (nopCache) Purge() error { return nil }

// Baker runs bake passes of one site into one output directory. Passes are
// sequential; a Baker is not safe for concurrent use.
type Baker struct {
	cfg      *config.Config
	opts     Options
	site     *content.Site
	routing  uri.Routing
	resolver *uri.Resolver
	paths    Paths

	renderer Renderer
	assets   AssetProcessor
	cache    CachePurger
	metrics  *metrics.Metrics
	logger   *zap.Logger
	out      io.Writer
	now      func() time.Time

	stage   Stage
	record  *record.Record
	posts   map[string]model.PostList
	summary *Summary
}

func New(cfg *config.Config, opts Options, deps Deps) (*Baker, error) {
	if deps.Renderer == nil {
		return nil, errors.New("bake: renderer is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Assets == nil {
		deps.Assets = assets.Passthrough(deps.Logger)
	}
	if deps.Cache == nil {
		deps.Cache = nopCache{}
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if opts.Staleness == "" {
		opts.Staleness = StalenessMtime
	}

	routing := cfg.Routing()
	resolver, err := uri.NewResolver(routing)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	return &Baker{
		cfg:      cfg,
		opts:     opts,
		site:     content.NewSite(routing, cfg.TemplatesPath()),
		routing:  routing,
		resolver: resolver,
		paths:    Paths{OutputDir: cfg.OutputDir, BaseURL: cfg.BaseURL, Pretty: cfg.Site.PrettyURLs},
		renderer: deps.Renderer,
		assets:   deps.Assets,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With(zap.String("component", "baker")),
		out:      deps.Out,
		now:      time.Now,
	}, nil
}

// Stage reports where the current or last pass is.
func (b *Baker) Stage() Stage {
	return b.stage
}

func (b *Baker) Paths() Paths {
	return b.paths
}

// Bake runs one full pass. Failures of single files are logged and counted
// in the summary; failing to prepare the output directory, purge the render
// cache or save the bake record aborts the pass.
func (b *Baker) Bake() (*Summary, error) {
	start := b.now()
	b.stage = StageInit
	b.summary = newSummary()
	b.posts = make(map[string]model.PostList)

	fmt.Fprintf(b.out, "  Baking:  %s\n  Into:    %s\n  For URL: %s\n\n", b.cfg.Root, b.cfg.OutputDir, b.cfg.BaseURL)
	b.logger.Info("bake started", zap.String("root", b.cfg.Root), zap.String("output", b.cfg.OutputDir), zap.Bool("smart", b.opts.Smart))

	if err := ensureWritable(b.cfg.OutputDir); err != nil {
		return nil, err
	}
	recordPath := filepath.Join(b.cfg.OutputDir, record.FileName)
	b.record = record.Open(recordPath, b.logger)
	b.record.StartPass(start)

	if b.record.LastURLBase() != b.cfg.BaseURL {
		t := b.now()
		if err := b.cache.Purge(); err != nil {
			return nil, fmt.Errorf("clean cache: %w", err)
		}
		b.record.Invalidate()
		b.timed(t, "Clean cache")
	}

	steps := []struct {
		stage Stage
		run   func() error
	}{
		{StagePosts, b.bakePosts},
		{StagePages, b.bakePages},
		{StageTags, func() error { return b.bakeTaxonomy(model.TagListing) }},
		{StageCategories, func() error { return b.bakeTaxonomy(model.CategoryListing) }},
		{StageAssets, b.bakeAssets},
	}
	for _, s := range steps {
		b.stage = s.stage
		if err := s.run(); err != nil {
			return nil, err
		}
	}

	b.stage = StageFinalizing
	if err := b.record.Save(recordPath, b.cfg.BaseURL); err != nil {
		return nil, err
	}
	b.stage = StageDone

	b.summary.Elapsed = b.now().Sub(start)
	b.metrics.ObserveBake(b.summary.Elapsed.Seconds())
	fmt.Fprintln(b.out, "-------------------------------")
	b.timed(start, "Done baking")
	b.logger.Info("bake finished",
		zap.Int("baked", len(b.summary.Baked)),
		zap.Int("skipped", b.summary.Skipped),
		zap.Int("errors", b.summary.Errors),
		zap.Duration("elapsed", b.summary.Elapsed))
	return b.summary, nil
}

// ensureWritable creates dir if needed and proves a file can be written in it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputDir, dir, err)
	}
	f, err := os.CreateTemp(dir, ".oven-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputDir, dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// shouldRebuild is the per-file staleness test of a pass.
func (b *Baker) shouldRebuild(path string) bool {
	if !b.opts.Smart {
		return true
	}
	stale, err := b.record.IsStale(path)
	if err != nil {
		b.logger.Warn("stat failed, rebuilding", zap.String("path", path), zap.Error(err))
		return true
	}
	if b.opts.Staleness == StalenessHash {
		changed, err := b.record.ContentChanged(path)
		if err != nil {
			b.logger.Warn("hash failed, rebuilding", zap.String("path", path), zap.Error(err))
			return true
		}
		stale = stale || changed
	}
	return stale
}

func (b *Baker) bakePosts() error {
	if _, ok := b.site.PostsDir(); !ok {
		b.logger.Debug("no posts directory, skipping posts")
		return nil
	}
	for _, blog := range b.routing.Blogs {
		posts, err := b.site.ListPosts(blog.Key, func(path string, err error) {
			b.fail(model.Post, path, err)
		})
		if err != nil {
			b.fail(model.Post, b.routing.PostsDir, err)
			continue
		}
		b.posts[blog.Key] = posts

		for _, p := range posts {
			baked := false
			if b.shouldRebuild(p.Path) {
				t := b.now()
				u := uri.BuildPostURL(blog.PostURL, p.Date, p.Slug)
				if _, err := b.bakeSource(p.ContentSource, u, posts); err != nil {
					b.fail(model.Post, p.Path, err)
				} else {
					baked = true
					b.timed(t, filepath.Base(p.Path))
				}
			} else {
				b.summary.Skipped++
			}
			b.record.RecordPost(record.PostEntry{
				SourcePath: p.Path,
				BlogKey:    blog.Key,
				Tags:       p.Header.Tags,
				Category:   p.Header.Category,
				WasBaked:   baked,
			})
		}
	}
	return nil
}

func (b *Baker) bakePages() error {
	files, err := b.site.ListPages()
	if err != nil {
		b.fail(model.Regular, b.routing.PagesDir, err)
	}
	for _, f := range files {
		switch {
		case f.IsContent(config.ContentExt):
			b.bakePage(f)
		case filepath.Ext(f.Rel) != config.ContentExt && b.opts.CopyMisc:
			b.copyMisc(f)
		}
	}
	return nil
}

func (b *Baker) bakePage(f content.PageFile) {
	// An up to date page is still rebaked if it lists posts and a post changed.
	if !b.shouldRebuild(f.Path) &&
		(!b.record.AnyPostWasBaked() || !b.record.IsPageUsingPosts(f.Rel)) {
		b.summary.Skipped++
		return
	}

	t := b.now()
	u := content.PageURI(f.Rel, config.ContentExt)
	blog := b.routing.DefaultBlog().Key
	src := model.ContentSource{Path: f.Path, Type: model.Regular, BlogKey: blog}
	used, err := b.bakeSource(src, u, b.posts[blog])
	if err != nil {
		b.fail(model.Regular, f.Path, err)
		return
	}
	if used {
		b.record.MarkPageUsesPosts(f.Rel)
	}
	if b.opts.CopyAssets {
		b.copyPageAssets(f.Path, u)
	}
	b.timed(t, f.Rel)
}

func (b *Baker) copyMisc(f content.PageFile) {
	dst := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(f.Rel))
	if !b.shouldRebuild(f.Path) && exists(dst) {
		b.summary.Skipped++
		return
	}
	if err := assets.CopyFile(f.Path, dst); err != nil {
		b.fail(model.Regular, f.Path, err)
		return
	}
	b.summary.add(f.Path, dst)
	b.metrics.IncBaked("misc")
}

func (b *Baker) copyPageAssets(pagePath, u string) {
	dir, ok := content.AssetsDir(pagePath)
	if !ok {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		b.fail(model.Regular, dir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(dir, e.Name())
		dst := filepath.Join(b.paths.AssetDir(u), e.Name())
		if !b.shouldRebuild(src) && exists(dst) {
			continue
		}
		if err := assets.CopyFile(src, dst); err != nil {
			b.fail(model.Regular, src, err)
			continue
		}
		b.summary.add(src, dst)
		b.metrics.IncBaked("asset")
	}
}

func (b *Baker) bakeTaxonomy(t model.PageType) error {
	if _, ok := b.site.PostsDir(); !ok {
		return nil
	}
	tpl, ok := b.site.TaxonomyTemplate(t)
	if !ok {
		b.logger.Debug("no listing template, skipping", zap.String("type", t.String()))
		return nil
	}
	tplStale := b.shouldRebuild(tpl)

	for _, blog := range b.routing.Blogs {
		build := func(key string) string { return uri.BuildTagURL(blog.TagURL, key) }
		toBake, members := b.record.TagsToBake, b.record.PostsTagged
		if t == model.CategoryListing {
			build = func(key string) string { return uri.BuildCategoryURL(blog.CategoryURL, key) }
			toBake, members = b.record.CategoriesToBake, b.record.PostsInCategory
		}
		hasListing := func(key string) bool {
			return !tplStale && exists(b.paths.OutputPath(build(key), 1))
		}

		for _, key := range toBake(blog.Key, hasListing) {
			start := b.now()
			posts := b.posts[blog.Key].ByPath(members(blog.Key, key))
			src := model.ContentSource{Path: tpl, Type: t, BlogKey: blog.Key, Key: key}
			if _, err := b.bakeSource(src, build(key), posts); err != nil {
				b.fail(t, tpl, fmt.Errorf("%s %q: %w", t, key, err))
				continue
			}
			b.summary.Listings = append(b.summary.Listings, Listing{
				Type: t.String(), BlogKey: blog.Key, Key: key, Posts: len(posts),
			})
			b.timed(start, fmt.Sprintf("%s (%d posts)", key, len(posts)))
		}
	}
	return nil
}

func (b *Baker) bakeAssets() error {
	start := b.now()
	var proc dirbake.FileProcessor = b.assets
	if b.opts.CopyAssets {
		proc = assets.Passthrough(b.logger)
	}
	last, ok := b.record.LastBakeTime()
	ix, err := dirbake.New(b.cfg.Root, b.cfg.OutputDir, proc, dirbake.PassTime{Time: last, Valid: ok}, dirbake.Options{
		Smart:         b.opts.Smart,
		SkipPatterns:  append(SiteTreeSkips(b.cfg.Root, b.cfg.OutputDir), b.opts.SkipPatterns...),
		ForcePatterns: b.opts.ForcePatterns,
	}, b.logger)
	if err != nil {
		return fmt.Errorf("set up asset indexer: %w", err)
	}
	res, err := ix.Run()
	if err != nil {
		b.fail(model.Regular, b.cfg.Root, err)
		return nil
	}
	for _, src := range res.Sources() {
		b.summary.add(src, res.Baked[src]...)
		b.metrics.IncBaked("asset")
	}
	for src, err := range res.Failed {
		b.summary.Errors++
		b.metrics.IncBakeError("asset")
		fmt.Fprintf(b.out, "[%11s] %s: %v\n", "ERROR", src, err)
	}
	b.summary.Skipped += res.Skipped
	b.timed(start, fmt.Sprintf("Assets (%d files)", len(res.Baked)))
	return nil
}

// SiteTreeSkips keeps site configuration and an output directory nested in
// the site root out of the misc tree.
func SiteTreeSkips(root, outDir string) []string {
	skips := []string{"config.yaml", "config.yml"}
	if rel, err := filepath.Rel(root, outDir); err == nil && !strings.HasPrefix(rel, "..") && rel != "." {
		skips = append(skips, filepath.ToSlash(rel)+"/**")
	}
	return skips
}

func (b *Baker) fail(t model.PageType, path string, err error) {
	b.summary.Errors++
	b.metrics.IncBakeError(t.String())
	b.logger.Error("bake failed", zap.String("type", t.String()), zap.String("path", path), zap.Error(err))
	fmt.Fprintf(b.out, "[%11s] %s: %v\n", "ERROR", path, err)
}

func (b *Baker) timed(start time.Time, msg string) {
	fmt.Fprintln(b.out, formatTimed(start, b.now(), msg))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
