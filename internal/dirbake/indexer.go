package dirbake

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FileProcessor writes the outputs of one source file.
type FileProcessor interface {
	ProcessFile(src, rel, outDir string) ([]string, error)
}

// BakeTimes tells when a source was last baked.
type BakeTimes interface {
	LastBakeTime(source string) (time.Time, bool)
}

// PassTime reports the same time for every source: the previous full pass.
type PassTime struct {
	Time  time.Time
	Valid bool
}

func (p PassTime) LastBakeTime(string) (time.Time, bool) {
	return p.Time, p.Valid
}

type Options struct {
	// Smart enables the mtime test. Without it every file not skipped is processed.
	Smart         bool
	SkipPatterns  []string
	ForcePatterns []string
}

// Indexer bakes a generic file tree under root into outDir. Top level
// entries starting with '_' or '.' are not part of the tree.
type Indexer struct {
	root   string
	outDir string
	proc   FileProcessor
	times  BakeTimes
	opts   Options
	logger *zap.Logger
}

func New(root, outDir string, proc FileProcessor, times BakeTimes, opts Options, logger *zap.Logger) (*Indexer, error) {
	for _, p := range append(append([]string{}, opts.SkipPatterns...), opts.ForcePatterns...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if times == nil {
		times = PassTime{}
	}
	return &Indexer{
		root:   root,
		outDir: outDir,
		proc:   proc,
		times:  times,
		opts:   opts,
		logger: logger.With(zap.String("component", "dirbake")),
	}, nil
}

// Result of an indexer run. Baked maps each processed source to what it produced.
type Result struct {
	Baked   map[string][]string
	Skipped int
	Failed  map[string]error
}

func newResult() *Result {
	return &Result{Baked: map[string][]string{}, Failed: map[string]error{}}
}

// Sources returns the processed source paths in order.
func (r *Result) Sources() []string {
	out := make([]string, 0, len(r.Baked))
	for s := range r.Baked {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Run walks the whole tree. Failures of single files are collected in the
// result; only a failure to walk the tree is returned.
func (ix *Indexer) Run() (*Result, error) {
	res := newResult()
	if st, err := os.Stat(ix.root); err != nil || !st.IsDir() {
		return res, nil
	}
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == ix.root {
			return nil
		}
		rel, err := filepath.Rel(ix.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.Contains(rel, "/") && excludedTopLevel(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ix.bake(path, rel, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", ix.root, err)
	}
	return res, nil
}

// BakeFile runs the indexer for a single known source.
func (ix *Indexer) BakeFile(src string) (*Result, error) {
	rel, err := filepath.Rel(ix.root, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%s is outside %s", src, ix.root)
	}
	res := newResult()
	ix.bake(src, filepath.ToSlash(rel), res)
	return res, nil
}

func (ix *Indexer) bake(path, rel string, res *Result) {
	process, err := ix.shouldProcess(path, rel)
	if err != nil {
		res.Failed[path] = err
		ix.logger.Error("stat failed", zap.String("source", rel), zap.Error(err))
		return
	}
	if !process {
		res.Skipped++
		return
	}
	outs, err := ix.proc.ProcessFile(path, rel, ix.outDir)
	if err != nil {
		res.Failed[path] = err
		ix.logger.Error("processing failed", zap.String("source", rel), zap.Error(err))
		return
	}
	res.Baked[path] = outs
}

func (ix *Indexer) shouldProcess(path, rel string) (bool, error) {
	if matchAny(ix.opts.SkipPatterns, rel) {
		return false, nil
	}
	if matchAny(ix.opts.ForcePatterns, rel) || !ix.opts.Smart {
		return true, nil
	}
	last, ok := ix.times.LastBakeTime(path)
	if !ok {
		return true, nil
	}
	st, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return !st.ModTime().Before(last), nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func excludedTopLevel(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
