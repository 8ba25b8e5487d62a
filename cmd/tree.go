package cmd

import (
	"path/filepath"
	"sort"

	"github.com/disiqueira/gotree/v3"

	"github.com/Bitlatte/oven/internal/bake"
)

type fileTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newFileTree(rootLabel string) fileTree {
	return fileTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t fileTree) dir(dirPath string) gotree.Tree {
	if dirPath == "." {
		return t.tree
	}
	d := t.dirs[dirPath]
	if d == nil {
		d = t.dir(filepath.Dir(dirPath)).Add(filepath.Base(dirPath))
		t.dirs[dirPath] = d
	}
	return d
}

func (t fileTree) insert(rel string) {
	t.dir(filepath.Dir(rel)).Add(filepath.Base(rel))
}

// outputTree renders the files a bake wrote, relative to outDir.
func outputTree(outDir string, s *bake.Summary) string {
	var rels []string
	for _, outs := range s.Baked {
		for _, o := range outs {
			if rel, err := filepath.Rel(outDir, o); err == nil {
				rels = append(rels, rel)
			}
		}
	}
	sort.Strings(rels)
	t := newFileTree(outDir)
	for _, rel := range rels {
		t.insert(rel)
	}
	return t.tree.Print()
}
