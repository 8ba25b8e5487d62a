package record

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const workInProgressSuffix = ".wip"

const ledgerVersion = 1

type ledger struct {
	Version         int               `yaml:"version"`
	LastBakeTime    string            `yaml:"last_bake_time"`
	LastURLBase     string            `yaml:"last_url_base"`
	PagesUsingPosts []string          `yaml:"pages_using_posts"`
	ContentHashes   map[string]string `yaml:"content_hashes,omitempty"`
}

func readLedger(path string) (ledger, error) {
	var l ledger
	b, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.UnmarshalStrict(b, &l); err != nil {
		return l, fmt.Errorf("decode ledger: %w", err)
	}
	if l.Version != ledgerVersion {
		return l, fmt.Errorf("incompatible ledger version %d", l.Version)
	}
	return l, nil
}

// writeLedger replaces the file at path through a temporary sibling so a
// crash never leaves a half-written ledger behind.
func writeLedger(path string, l ledger) error {
	b, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	tmp := path + workInProgressSuffix
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace ledger %s with %s: %w", path, tmp, err)
	}
	return nil
}
