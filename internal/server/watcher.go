package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher drops index entries of sources that are removed or renamed, so
// the next request for their outputs goes through a full reconcile.
type Watcher struct {
	watcher *fsnotify.Watcher
	index   *OutputIndex
	ignore  []string
	logger  *zap.Logger
	// OnChange, when set, is called for every relevant event.
	OnChange func(path string, op fsnotify.Op)
}

// NewWatcher watches root recursively, skipping the ignored directories.
func NewWatcher(root string, index *OutputIndex, ignore []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		index:   index,
		ignore:  ignore,
		logger:  logger.With(zap.String("component", "watcher")),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return strings.HasPrefix(filepath.Base(path), ".")
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("cannot walk", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

// Run handles events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if w.index.RemoveSource(event.Name) {
			w.logger.Debug("source gone, dropped from index", zap.String("source", event.Name))
		}
	case event.Has(fsnotify.Create):
		if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
	case event.Has(fsnotify.Write):
	default:
		return
	}
	if w.OnChange != nil {
		w.OnChange(event.Name, event.Op)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
