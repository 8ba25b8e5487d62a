package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
)

// FileName is the ledger's name inside an output directory.
const FileName = "bakeinfo.yml"

// PostEntry is one post seen during the current pass.
type PostEntry struct {
	SourcePath string
	BlogKey    string
	Tags       []string
	Category   string
	WasBaked   bool
}

// Record is the incremental-build ledger of one output directory. Post
// entries are scoped to the pass; bake time, URL base, the pages known to
// consume post data and content hashes survive across passes.
type Record struct {
	lastBakeTime time.Time
	hasLastBake  bool
	lastURLBase  string

	posts     []PostEntry
	postIndex map[string]int

	pagesUsingPosts map[string]struct{}

	hashes     map[string]string
	seenHashes map[string]string

	passStart time.Time

	now    func() time.Time
	logger *zap.Logger
}

func newRecord(logger *zap.Logger) *Record {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Record{
		postIndex:       make(map[string]int),
		pagesUsingPosts: make(map[string]struct{}),
		hashes:          make(map[string]string),
		seenHashes:      make(map[string]string),
		now:             time.Now,
		logger:          logger,
	}
}

// Open loads the ledger at path. A missing file yields an empty record; an
// unreadable or corrupt one is logged and also yields an empty record, which
// forces a full bake.
func Open(path string, logger *zap.Logger) *Record {
	r := newRecord(logger)
	l, err := readLedger(path)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		return r
	default:
		r.logger.Warn("bake record unusable, baking everything", zap.String("path", path), zap.Error(err))
		return r
	}

	if l.LastBakeTime != "" {
		t, err := time.Parse(time.RFC3339Nano, l.LastBakeTime)
		if err != nil {
			r.logger.Warn("bake record has a bad timestamp, baking everything", zap.String("path", path), zap.Error(err))
			return newRecord(logger)
		}
		r.lastBakeTime = t
		r.hasLastBake = true
	}
	r.lastURLBase = l.LastURLBase
	for _, p := range l.PagesUsingPosts {
		r.pagesUsingPosts[p] = struct{}{}
	}
	for k, v := range l.ContentHashes {
		r.hashes[k] = v
	}
	return r
}

// StartPass records when the current pass began. Save stamps that time, so a
// source edited while the pass runs is still stale on the next one.
func (r *Record) StartPass(at time.Time) {
	r.passStart = at
}

// LastBakeTime returns the time of the previous successful bake.
func (r *Record) LastBakeTime() (time.Time, bool) {
	return r.lastBakeTime, r.hasLastBake
}

func (r *Record) LastURLBase() string {
	return r.lastURLBase
}

// Invalidate forgets the previous bake time so every source counts as stale.
func (r *Record) Invalidate() {
	r.lastBakeTime = time.Time{}
	r.hasLastBake = false
}

// IsStale reports whether the file at path was modified at or after the last bake.
func (r *Record) IsStale(path string) (bool, error) {
	if !r.hasLastBake {
		return true, nil
	}
	st, err := os.Stat(path)
	if err != nil {
		return true, err
	}
	return !st.ModTime().Before(r.lastBakeTime), nil
}

// ContentChanged reports whether the sha256 of the file differs from the one
// recorded by the previous pass. The new hash is kept for the next save.
func (r *Record) ContentChanged(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return true, err
	}
	sum := sha256.Sum256(b)
	h := hex.EncodeToString(sum[:])
	r.seenHashes[path] = h
	prev, ok := r.hashes[path]
	return !ok || prev != h, nil
}

// RecordPost adds or replaces the entry for sourcePath.
func (r *Record) RecordPost(e PostEntry) {
	if i, ok := r.postIndex[e.SourcePath]; ok {
		r.posts[i] = e
		return
	}
	r.postIndex[e.SourcePath] = len(r.posts)
	r.posts = append(r.posts, e)
}

func (r *Record) Posts() []PostEntry {
	return r.posts
}

// AnyPostWasBaked reports whether a post was rendered during this pass.
func (r *Record) AnyPostWasBaked() bool {
	for _, p := range r.posts {
		if p.WasBaked {
			return true
		}
	}
	return false
}

// MarkPageUsesPosts flags a page, by its path relative to the pages
// directory, as consuming post data. The flag is never cleared.
func (r *Record) MarkPageUsesPosts(relPath string) {
	r.pagesUsingPosts[relPath] = struct{}{}
}

func (r *Record) IsPageUsingPosts(relPath string) bool {
	_, ok := r.pagesUsingPosts[relPath]
	return ok
}

// TagsToBake returns, sorted, the tags of blog carried by a post baked this
// pass, plus those for which hasListing reports no listing output yet.
func (r *Record) TagsToBake(blog string, hasListing func(tag string) bool) []string {
	return r.keysToBake(blog, hasListing, func(e PostEntry) []string { return e.Tags })
}

// CategoriesToBake is TagsToBake for categories.
func (r *Record) CategoriesToBake(blog string, hasListing func(category string) bool) []string {
	return r.keysToBake(blog, hasListing, func(e PostEntry) []string {
		if e.Category == "" {
			return nil
		}
		return []string{e.Category}
	})
}

func (r *Record) keysToBake(blog string, hasListing func(string) bool, keys func(PostEntry) []string) []string {
	seen := make(map[string]bool)
	for _, e := range r.posts {
		if e.BlogKey != blog {
			continue
		}
		for _, k := range keys(e) {
			seen[k] = seen[k] || e.WasBaked
		}
	}
	var out []string
	for k, baked := range seen {
		if baked || (hasListing != nil && !hasListing(k)) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// PostsTagged returns the source paths of every post of blog carrying tag,
// whether or not it was baked this pass.
func (r *Record) PostsTagged(blog, tag string) []string {
	var out []string
	for _, e := range r.posts {
		if e.BlogKey != blog {
			continue
		}
		for _, t := range e.Tags {
			if t == tag {
				out = append(out, e.SourcePath)
				break
			}
		}
	}
	return out
}

func (r *Record) PostsInCategory(blog, category string) []string {
	var out []string
	for _, e := range r.posts {
		if e.BlogKey == blog && e.Category == category {
			out = append(out, e.SourcePath)
		}
	}
	return out
}

// Save persists the ledger with the pass start, or the current time when no
// pass was started, as the last bake time. Post entries are not persisted.
func (r *Record) Save(path, urlBase string) error {
	now := r.passStart
	if now.IsZero() {
		now = r.now()
	}
	if r.hasLastBake && now.Before(r.lastBakeTime) {
		now = r.lastBakeTime
	}

	l := ledger{
		Version:      ledgerVersion,
		LastBakeTime: now.Format(time.RFC3339Nano),
		LastURLBase:  urlBase,
	}
	for p := range r.pagesUsingPosts {
		l.PagesUsingPosts = append(l.PagesUsingPosts, p)
	}
	sort.Strings(l.PagesUsingPosts)
	if len(r.hashes)+len(r.seenHashes) > 0 {
		l.ContentHashes = make(map[string]string, len(r.hashes))
		for k, v := range r.hashes {
			l.ContentHashes[k] = v
		}
		for k, v := range r.seenHashes {
			l.ContentHashes[k] = v
		}
	}

	if err := writeLedger(path, l); err != nil {
		return fmt.Errorf("save bake record: %w", err)
	}
	r.lastBakeTime = now
	r.hasLastBake = true
	r.lastURLBase = urlBase
	return nil
}
