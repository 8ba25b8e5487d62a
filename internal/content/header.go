package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Bitlatte/oven/internal/model"
)

// ReadFile returns the parsed front matter of the content file at path and its body.
func ReadFile(path string) (model.Header, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Header{}, nil, err
	}
	return ParseHeader(b, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// ParseHeader splits raw content into header and body. name feeds the title
// when the front matter has none.
func ParseHeader(raw []byte, name string) (model.Header, []byte, error) {
	var fm map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return model.Header{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	if fm == nil {
		fm = make(map[string]interface{})
	}

	h := model.Header{Params: fm}
	if title, ok := fm["title"].(string); ok && title != "" {
		h.Title = title
	} else {
		h.Title = titleFromName(name)
	}
	h.Tags = stringList(fm["tags"])
	if c, ok := fm["category"].(string); ok {
		h.Category = strings.TrimSpace(c)
	}
	if l, ok := fm["layout"].(string); ok {
		h.Layout = l
	}
	h.Format = "markdown"
	if f, ok := fm["format"].(string); ok && f != "" {
		h.Format = f
	}
	return h, body, nil
}

func titleFromName(name string) string {
	name = strings.TrimPrefix(name, "_")
	temp := strings.ReplaceAll(strings.ReplaceAll(name, "-", " "), "_", " ")
	return cases.Title(language.English).String(temp)
}

// stringList accepts either a YAML sequence or a comma separated string.
func stringList(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, s := range t {
			if str := strings.TrimSpace(fmt.Sprint(s)); str != "" {
				out = append(out, str)
			}
		}
	case []string:
		out = append(out, t...)
	}
	return out
}
