package bake

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Paths maps a canonical URI and page number to the output file and public URL.
type Paths struct {
	OutputDir string
	BaseURL   string
	Pretty    bool
}

func pageURI(u string, n int) string {
	if n <= 1 {
		return u
	}
	if u == "" {
		return strconv.Itoa(n)
	}
	return u + "/" + strconv.Itoa(n)
}

// OutputPath is where page n of u is written.
func (p Paths) OutputPath(u string, n int) string {
	rel := pageURI(u, n)
	if rel == "" {
		return filepath.Join(p.OutputDir, "index.html")
	}
	if p.Pretty {
		return filepath.Join(p.OutputDir, filepath.FromSlash(rel), "index.html")
	}
	return filepath.Join(p.OutputDir, filepath.FromSlash(rel)+".html")
}

// URL is the public link of page n of u.
func (p Paths) URL(u string, n int) string {
	base := strings.TrimSuffix(p.BaseURL, "/") + "/"
	rel := pageURI(u, n)
	switch {
	case rel == "":
		return base
	case p.Pretty:
		return base + rel + "/"
	default:
		return base + rel + ".html"
	}
}

// AssetDir is the output directory receiving the assets of the page at u.
func (p Paths) AssetDir(u string) string {
	return filepath.Join(p.OutputDir, filepath.FromSlash(u))
}

// AssetURL is the public link of a page asset.
func (p Paths) AssetURL(u, name string) string {
	base := strings.TrimSuffix(p.BaseURL, "/") + "/"
	if u == "" {
		return base + name
	}
	return base + u + "/" + name
}
