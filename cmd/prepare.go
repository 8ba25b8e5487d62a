package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/extemporalgenome/slug"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/uri"
)

var prepareBlog string

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Creates new content from a skeleton",
}

var preparePostCmd = &cobra.Command{
	Use:   "post <title>",
	Short: "Creates a post dated today",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := preparePost(appConfig, strings.Join(args, " "), prepareBlog, time.Now())
		if err != nil {
			return err
		}
		log.Info("post created", zap.String("path", path))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

type postHeader struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// preparePost writes an empty post and returns its path. Existing files are
// never overwritten.
func preparePost(cfg *config.Config, title, blog string, now time.Time) (string, error) {
	name := slug.Slug(title)
	if name == "" {
		return "", fmt.Errorf("title %q gives an empty slug", title)
	}
	dir := cfg.PostsPath()
	if len(cfg.Site.Blogs) > 1 {
		if blog == "" {
			blog = cfg.Site.Blogs[0]
		}
		known := false
		for _, b := range cfg.Site.Blogs {
			known = known || b == blog
		}
		if !known {
			return "", fmt.Errorf("unknown blog %q", blog)
		}
		dir = filepath.Join(dir, blog)
	}

	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, uri.PostFileName(date, name, config.ContentExt))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	header, err := yaml.Marshal(postHeader{Title: title, Tags: []string{}})
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	body := "---\n" + string(header) + "---\n\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func init() {
	preparePostCmd.Flags().StringVar(&prepareBlog, "blog", "", "blog to add the post to on multi-blog sites")
	prepareCmd.AddCommand(preparePostCmd)
	rootCmd.AddCommand(prepareCmd)
}
