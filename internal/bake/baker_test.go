package bake

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Bitlatte/oven/internal/bake/mocks"
	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/model"
	"github.com/Bitlatte/oven/internal/record"
)

type BakerTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	renderer *mocks.MockRenderer
	cache    *mocks.MockCachePurger

	root     string
	cfg      *config.Config
	out      bytes.Buffer
	past     time.Time
	rendered []string
	accessed bool
	purges   int
	failOn   map[string]bool
}

func (s *BakerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.renderer = mocks.NewMockRenderer(s.ctrl)
	s.cache = mocks.NewMockCachePurger(s.ctrl)
	s.rendered = nil
	s.purges = 0
	s.failOn = map[string]bool{}
	s.out.Reset()
	s.past = time.Now().Add(-2 * time.Hour)

	s.root = s.T().TempDir()
	s.cfg = &config.Config{
		Root:      s.root,
		OutputDir: filepath.Join(s.root, "_site"),
		BaseURL:   "/",
		Site: config.SiteConfig{
			Title:        "Test",
			Blogs:        []string{"blog"},
			PostsPerPage: 2,
			PrettyURLs:   true,
		},
	}

	s.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(src model.ContentSource, data *model.PageData) ([]byte, error) {
			name := filepath.Base(src.Path)
			if src.Key != "" {
				name += ":" + src.Key
			}
			if data.Page.PageNumber > 1 {
				name += "#" + string(rune('0'+data.Page.PageNumber))
			}
			s.rendered = append(s.rendered, name)
			if filepath.Base(src.Path) == "_index.html" || src.Type == model.TagListing {
				data.Pagination()
			}
			s.accessed = data.PaginationAccessed()
			if s.failOn[filepath.Base(src.Path)] {
				return nil, errors.New("template exploded")
			}
			return []byte("<html>" + data.Page.URL + "</html>"), nil
		}).AnyTimes()
	s.renderer.EXPECT().WasPaginationDataAccessed().DoAndReturn(func() bool { return s.accessed }).AnyTimes()
	s.cache.EXPECT().Purge().DoAndReturn(func() error { s.purges++; return nil }).AnyTimes()
}

func (s *BakerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestBakerTestSuite(t *testing.T) {
	suite.Run(t, new(BakerTestSuite))
}

func (s *BakerTestSuite) write(rel, body string) string {
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o644))
	s.Require().NoError(os.Chtimes(path, s.past, s.past))
	return path
}

func (s *BakerTestSuite) touch(rel string) {
	future := time.Now().Add(time.Hour)
	s.Require().NoError(os.Chtimes(filepath.Join(s.root, filepath.FromSlash(rel)), future, future))
}

// blogSite has three posts, two of them tagged "x", an index using
// pagination, a plain page and a tag listing template.
func (s *BakerTestSuite) blogSite() {
	s.write("_content/posts/2020-01-01_first.html", "---\ntags: [x]\ncategory: notes\n---\none")
	s.write("_content/posts/2020-01-02_second.html", "---\ntags: [x, y]\n---\ntwo")
	s.write("_content/posts/2020-01-03_third.html", "---\ntags: [y]\n---\nthree")
	s.write("_content/pages/_index.html", "home")
	s.write("_content/pages/about.html", "about")
	s.write("_content/pages/_tag.html", "tag listing")
	s.write("css/site.css", "body{}")
}

func (s *BakerTestSuite) newBaker(opts Options) *Baker {
	b, err := New(s.cfg, opts, Deps{Renderer: s.renderer, Cache: s.cache, Out: &s.out})
	s.Require().NoError(err)
	return b
}

func (s *BakerTestSuite) bake(opts Options) *Summary {
	s.rendered = nil
	sum, err := s.newBaker(opts).Bake()
	s.Require().NoError(err)
	sort.Strings(s.rendered)
	return sum
}

func (s *BakerTestSuite) outputExists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel)))
	return err == nil
}

func (s *BakerTestSuite) TestFirstBakeRendersEverything() {
	s.blogSite()
	b := s.newBaker(Options{Smart: true})
	sum, err := b.Bake()
	s.Require().NoError(err)

	s.Equal(StageDone, b.Stage())
	s.Equal(0, sum.Errors)
	s.Equal(1, s.purges)
	for _, rel := range []string{
		"2020/01/01/first/index.html",
		"2020/01/03/third/index.html",
		"index.html",
		"2/index.html",
		"about/index.html",
		"tag/x/index.html",
		"tag/y/index.html",
		"css/site.css",
		record.FileName,
	} {
		s.True(s.outputExists(rel), rel)
	}
	s.False(s.outputExists("_tag/index.html"))
	s.Contains(s.out.String(), "Done baking")
	s.Contains(s.out.String(), "x (2 posts)")
}

func (s *BakerTestSuite) TestTaxonomyFanOutCount() {
	s.blogSite()
	sum := s.bake(Options{Smart: true})

	var x []Listing
	for _, l := range sum.Listings {
		if l.Key == "x" {
			x = append(x, l)
		}
	}
	s.Require().Len(x, 1)
	s.Equal(2, x[0].Posts)
	s.Equal("tag", x[0].Type)
}

func (s *BakerTestSuite) TestSmartSkip() {
	s.blogSite()
	s.bake(Options{Smart: true})

	sum := s.bake(Options{Smart: true})
	s.Empty(s.rendered)
	s.Positive(sum.Skipped)

	s.touch("_content/pages/about.html")
	s.bake(Options{Smart: true})
	s.Equal([]string{"about.html"}, s.rendered)
}

func (s *BakerTestSuite) TestSmartOffRebuildsEverything() {
	s.blogSite()
	s.bake(Options{Smart: true})

	s.bake(Options{Smart: false})
	s.Contains(s.rendered, "about.html")
	s.Contains(s.rendered, "2020-01-01_first.html")
	s.Contains(s.rendered, "_tag.html:x")
}

func (s *BakerTestSuite) TestPostDependencyPropagation() {
	s.blogSite()
	s.bake(Options{Smart: true})

	s.touch("_content/posts/2020-01-03_third.html")
	s.bake(Options{Smart: true})

	s.Contains(s.rendered, "2020-01-03_third.html")
	s.Contains(s.rendered, "_index.html")
	s.Contains(s.rendered, "_tag.html:y")
	s.NotContains(s.rendered, "about.html")
	s.NotContains(s.rendered, "_tag.html:x")
	s.NotContains(s.rendered, "2020-01-01_first.html")
}

func (s *BakerTestSuite) TestPageUsingPostsIsRememberedForever() {
	s.blogSite()
	s.bake(Options{Smart: true})

	rec := record.Open(filepath.Join(s.cfg.OutputDir, record.FileName), nil)
	s.True(rec.IsPageUsingPosts("_index.html"))
	s.False(rec.IsPageUsingPosts("about.html"))

	s.bake(Options{Smart: true})
	rec = record.Open(filepath.Join(s.cfg.OutputDir, record.FileName), nil)
	s.True(rec.IsPageUsingPosts("_index.html"))
}

func (s *BakerTestSuite) TestURLBaseChangeInvalidatesEverything() {
	s.blogSite()
	s.bake(Options{Smart: true})
	s.Equal(1, s.purges)

	s.bake(Options{Smart: true})
	s.Equal(1, s.purges)
	s.Empty(s.rendered)

	s.cfg.BaseURL = "/blog-site/"
	s.bake(Options{Smart: true})
	s.Equal(2, s.purges)
	s.Contains(s.rendered, "about.html")
	s.Contains(s.rendered, "2020-01-02_second.html")
	s.Contains(s.rendered, "_tag.html:x")
}

func (s *BakerTestSuite) TestMissingPostsDirectory() {
	s.write("_content/pages/about.html", "about")
	s.write("_content/pages/_tag.html", "tag listing")
	sum := s.bake(Options{Smart: true})

	s.Equal(0, sum.Errors)
	s.Empty(sum.Listings)
	s.Equal([]string{"about.html"}, s.rendered)
}

func (s *BakerTestSuite) TestMissingTaxonomyTemplate() {
	s.write("_content/posts/2020-01-01_first.html", "---\ntags: [x]\n---\none")
	sum := s.bake(Options{Smart: true})

	s.Equal(0, sum.Errors)
	s.Empty(sum.Listings)
	s.Equal([]string{"2020-01-01_first.html"}, s.rendered)
}

func (s *BakerTestSuite) TestPerFileErrorsAreIsolated() {
	s.blogSite()
	s.failOn["about.html"] = true

	sum := s.bake(Options{Smart: true})
	s.Equal(1, sum.Errors)
	s.True(s.outputExists("index.html"))
	s.True(s.outputExists("2020/01/02/second/index.html"))
	s.False(s.outputExists("about/index.html"))
	s.Contains(s.out.String(), "template exploded")
}

func (s *BakerTestSuite) TestCopyMiscAndPageAssets() {
	s.write("_content/pages/about.html", "about")
	s.write("_content/pages/robots.txt", "User-agent: *")
	s.write("_content/pages/about-assets/me.png", "png")

	sum := s.bake(Options{Smart: true, CopyMisc: true, CopyAssets: true})
	s.Equal(0, sum.Errors)
	s.True(s.outputExists("robots.txt"))
	s.True(s.outputExists("about/me.png"))

	s.Require().NoError(os.RemoveAll(s.cfg.OutputDir))
	s.bake(Options{Smart: true})
	s.False(s.outputExists("robots.txt"))
	s.False(s.outputExists("about/me.png"))
}

func (s *BakerTestSuite) TestOutputDirNotWritable() {
	s.write("blocker", "a file where the output dir should be")
	s.cfg.OutputDir = filepath.Join(s.root, "blocker")

	_, err := s.newBaker(Options{Smart: true}).Bake()
	s.ErrorIs(err, ErrOutputDir)
	s.Empty(s.rendered)
}

func (s *BakerTestSuite) TestCachePurgeFailureIsFatal() {
	s.write("_content/pages/about.html", "about")
	cache := mocks.NewMockCachePurger(s.ctrl)
	cache.EXPECT().Purge().Return(errors.New("disk gone"))

	b, err := New(s.cfg, Options{Smart: true}, Deps{Renderer: s.renderer, Cache: cache})
	s.Require().NoError(err)
	_, err = b.Bake()
	s.Error(err)
	s.Empty(s.rendered)
}

func (s *BakerTestSuite) TestRenderURI() {
	s.blogSite()
	b := s.newBaker(Options{Smart: true})

	out, err := b.RenderURI("/about")
	s.Require().NoError(err)
	s.Equal("<html>/about/</html>", string(out))

	_, err = b.RenderURI("/tag/x")
	s.Require().NoError(err)
	s.Contains(s.rendered, "_tag.html:x")

	_, err = b.RenderURI("/nope.ext")
	s.ErrorIs(err, ErrNotFound)

	_, err = b.RenderURI("/2021/05/05/missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *BakerTestSuite) TestPageAsset() {
	s.blogSite()
	pic := s.write("_content/pages/about-assets/me.png", "png")
	logo := s.write("_content/pages/_index-assets/logo.svg", "<svg/>")
	guide := s.write("_content/pages/docs/_index-assets/guide.pdf", "pdf")
	b := s.newBaker(Options{})

	for in, want := range map[string]string{
		"/about/me.png":      pic,
		"/logo.svg":          logo,
		"/docs/guide.pdf":    guide,
		"/about/../logo.svg": logo,
	} {
		got, ok := b.PageAsset(in)
		s.True(ok, in)
		s.Equal(want, got, in)
	}
	for _, in := range []string{"/about/other.png", "/about/", "/", "/css/site.css"} {
		_, ok := b.PageAsset(in)
		s.False(ok, in)
	}
}

func (s *BakerTestSuite) TestRecordStampsPassStart() {
	s.blogSite()
	start := time.Now().Add(-time.Minute).UTC()
	b := s.newBaker(Options{Smart: true})
	b.now = func() time.Time { return start }
	_, err := b.Bake()
	s.Require().NoError(err)

	last, ok := record.Open(filepath.Join(s.cfg.OutputDir, record.FileName), nil).LastBakeTime()
	s.Require().True(ok)
	s.True(start.Equal(last))
}

func (s *BakerTestSuite) TestSectionIndexPage() {
	s.write("_content/pages/docs/_index.html", "docs home")
	s.bake(Options{Smart: true})

	s.True(s.outputExists("docs/index.html"))
	s.False(s.outputExists("docs/_index/index.html"))
}

func TestPaths(t *testing.T) {
	pretty := Paths{OutputDir: "/out", BaseURL: "/site/", Pretty: true}
	plain := Paths{OutputDir: "/out", BaseURL: "/site", Pretty: false}

	cases := []struct {
		uri     string
		n       int
		prettyP string
		plainP  string
		prettyU string
		plainU  string
	}{
		{"", 1, "/out/index.html", "/out/index.html", "/site/", "/site/"},
		{"", 2, "/out/2/index.html", "/out/2.html", "/site/2/", "/site/2.html"},
		{"about", 1, "/out/about/index.html", "/out/about.html", "/site/about/", "/site/about.html"},
		{"tag/x", 3, "/out/tag/x/3/index.html", "/out/tag/x/3.html", "/site/tag/x/3/", "/site/tag/x/3.html"},
	}
	for _, c := range cases {
		if got := pretty.OutputPath(c.uri, c.n); got != filepath.FromSlash(c.prettyP) {
			t.Errorf("pretty OutputPath(%q, %d) = %q", c.uri, c.n, got)
		}
		if got := plain.OutputPath(c.uri, c.n); got != filepath.FromSlash(c.plainP) {
			t.Errorf("plain OutputPath(%q, %d) = %q", c.uri, c.n, got)
		}
		if got := pretty.URL(c.uri, c.n); got != c.prettyU {
			t.Errorf("pretty URL(%q, %d) = %q", c.uri, c.n, got)
		}
		if got := plain.URL(c.uri, c.n); got != c.plainU {
			t.Errorf("plain URL(%q, %d) = %q", c.uri, c.n, got)
		}
	}
}

func TestStageString(t *testing.T) {
	if StagePosts.String() != "BAKING_POSTS" || StageDone.String() != "DONE" {
		t.Fatal("unexpected stage names")
	}
	if Stage(42).String() != "Stage(42)" {
		t.Fatal("unexpected name for unknown stage")
	}
}
