package assets

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

// Processor turns one source file into zero or more files under outDir.
// rel is the slash separated path of src relative to the tree being baked.
type Processor interface {
	Name() string
	Match(rel string) bool
	Process(src, rel, outDir string) ([]string, error)
}

const (
	CopyProcessor     = "copy"
	MarkdownProcessor = "markdown"
)

// Pipeline hands each file to the first processor that matches it.
type Pipeline struct {
	processors []Processor
	logger     *zap.Logger
}

// NewPipeline selects processors by name. "*" (or no names) enables all of
// them. The copy processor is always last so every file is handled.
func NewPipeline(names []string, md goldmark.Markdown, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	available := map[string]Processor{
		MarkdownProcessor: &markdownProcessor{md: md},
	}

	enabled := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		switch {
		case n == "*":
			for k := range available {
				enabled[k] = true
			}
		case n == CopyProcessor:
		case available[n] != nil:
			enabled[n] = true
		default:
			return nil, fmt.Errorf("unknown asset processor %q", n)
		}
	}
	if len(names) == 0 {
		for k := range available {
			enabled[k] = true
		}
	}

	keys := make([]string, 0, len(enabled))
	for k := range enabled {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := &Pipeline{logger: logger.With(zap.String("component", "assets"))}
	for _, k := range keys {
		p.processors = append(p.processors, available[k])
	}
	p.processors = append(p.processors, copyProcessor{})
	return p, nil
}

// Passthrough is a pipeline that only copies.
func Passthrough(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		processors: []Processor{copyProcessor{}},
		logger:     logger.With(zap.String("component", "assets")),
	}
}

func (p *Pipeline) Names() []string {
	out := make([]string, len(p.processors))
	for i, pr := range p.processors {
		out[i] = pr.Name()
	}
	return out
}

// ProcessFile runs src through the pipeline and returns the output paths it wrote.
func (p *Pipeline) ProcessFile(src, rel, outDir string) ([]string, error) {
	for _, pr := range p.processors {
		if !pr.Match(rel) {
			continue
		}
		outs, err := pr.Process(src, rel, outDir)
		if err != nil {
			return nil, fmt.Errorf("%s processor on %s: %w", pr.Name(), rel, err)
		}
		p.logger.Debug("processed", zap.String("processor", pr.Name()), zap.String("source", rel), zap.Strings("outputs", outs))
		return outs, nil
	}
	return nil, nil
}

type copyProcessor struct{}

func (copyProcessor) Name() string { return CopyProcessor }

func (copyProcessor) Match(string) bool { return true }

func (copyProcessor) Process(src, rel, outDir string) ([]string, error) {
	dst := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := CopyFile(src, dst); err != nil {
		return nil, err
	}
	return []string{dst}, nil
}

// markdownProcessor renders name.md to name.html and keeps the source next to it.
type markdownProcessor struct {
	md goldmark.Markdown
}

func (*markdownProcessor) Name() string { return MarkdownProcessor }

func (*markdownProcessor) Match(rel string) bool {
	return strings.EqualFold(filepath.Ext(rel), ".md")
}

func (m *markdownProcessor) Process(src, rel, outDir string) ([]string, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := m.md.Convert(b, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	kept := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := CopyFile(src, kept); err != nil {
		return nil, err
	}
	html := strings.TrimSuffix(kept, filepath.Ext(kept)) + ".html"
	if err := os.WriteFile(html, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", html, err)
	}
	return []string{html, kept}, nil
}

// CopyFile copies srcFile to dstFile, creating parent directories and
// preserving the permission bits of the source.
func CopyFile(srcFile, dstFile string) error {
	srcF, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("open source file %s: %w", srcFile, err)
	}
	defer srcF.Close()

	dstDir := filepath.Dir(dstFile)
	if err := os.MkdirAll(dstDir, os.ModePerm); err != nil {
		return fmt.Errorf("create destination directory %s: %w", dstDir, err)
	}

	dstF, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("create destination file %s: %w", dstFile, err)
	}
	defer dstF.Close()

	if _, err := io.Copy(dstF, srcF); err != nil {
		return fmt.Errorf("copy data from %s to %s: %w", srcFile, dstFile, err)
	}

	if st, err := srcF.Stat(); err == nil {
		_ = os.Chmod(dstFile, st.Mode().Perm())
	}
	return nil
}
