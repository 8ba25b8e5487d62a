package bake

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"github.com/Bitlatte/oven/internal/model"
)

// Renderer turns a content source plus its data context into HTML.
// WasPaginationDataAccessed reports on the most recent Render call.
type Renderer interface {
	Render(src model.ContentSource, data *model.PageData) ([]byte, error)
	WasPaginationDataAccessed() bool
}

// AssetProcessor writes the outputs of one file of the misc tree.
type AssetProcessor interface {
	ProcessFile(src, rel, outDir string) ([]string, error)
}

// CachePurger discards every cached render.
type CachePurger interface {
	Purge() error
}
