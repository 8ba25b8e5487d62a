package server

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/dirbake"
	"github.com/Bitlatte/oven/internal/metrics"
)

const (
	ModeTargeted = "targeted"
	ModeFull     = "full"
)

// Indexer is the part of dirbake the reconciler drives.
type Indexer interface {
	Run() (*dirbake.Result, error)
	BakeFile(src string) (*dirbake.Result, error)
}

// Reconciler keeps the served output tree fresh, one request at a time.
type Reconciler struct {
	mu      sync.Mutex
	indexer Indexer
	index   *OutputIndex
	outDir  string
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewReconciler(indexer Indexer, index *OutputIndex, outDir string, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		indexer: indexer,
		index:   index,
		outDir:  outDir,
		metrics: m,
		logger:  logger.With(zap.String("component", "reconciler")),
		now:     time.Now,
	}
}

// OutputPath maps a request path to a file path under the output tree.
func (r *Reconciler) OutputPath(requestPath string) string {
	clean := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	return filepath.Join(r.outDir, filepath.FromSlash(clean))
}

// Prime runs a full indexer pass and indexes everything it produced. The
// server calls it once before accepting requests.
func (r *Reconciler) Prime() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	res, err := r.indexer.Run()
	if err != nil {
		return 0, fmt.Errorf("initial bake: %w", err)
	}
	added := r.index.Merge(res, start)
	r.metrics.ObserveReconcile(ModeFull, r.now().Sub(start).Seconds())
	for src, err := range res.Failed {
		r.logger.Warn("initial bake failed", zap.String("source", src), zap.Error(err))
	}
	r.logger.Info("output index primed", zap.Int("outputs", added), zap.Int("failed", len(res.Failed)))
	return added, nil
}

// Reconcile brings the output file for requestPath up to date and returns
// its path. A known output only rebakes its own source; anything else runs
// a full indexer pass. The returned file may still not exist when no source
// produces it.
func (r *Reconciler) Reconcile(requestPath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	out := r.OutputPath(requestPath)

	mode := ModeFull
	src, known := r.index.Lookup(out)
	if known && exists(out) {
		mode = ModeTargeted
	}
	defer func() {
		r.metrics.ObserveReconcile(mode, r.now().Sub(start).Seconds())
	}()

	if mode == ModeTargeted {
		res, err := r.indexer.BakeFile(src)
		if err != nil {
			return "", fmt.Errorf("rebake %s: %w", src, err)
		}
		if _, failed := res.Failed[src]; failed {
			r.index.RemoveSource(src)
		}
		r.index.Merge(res, start)
		r.logger.Debug("targeted reconcile", zap.String("output", out), zap.String("source", src), zap.Int("rebaked", len(res.Baked)))
		return out, nil
	}

	if known {
		// the output vanished, so its source must be reprocessed
		r.index.RemoveSource(src)
	}
	res, err := r.indexer.Run()
	if err != nil {
		return "", fmt.Errorf("full reconcile: %w", err)
	}
	added := r.index.Merge(res, start)
	r.logger.Debug("full reconcile", zap.String("output", out), zap.Int("rebaked", len(res.Baked)), zap.Int("added", added))
	return out, nil
}

func exists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
