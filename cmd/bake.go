package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Bitlatte/oven/internal/assets"
	"github.com/Bitlatte/oven/internal/bake"
	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/metrics"
	"github.com/Bitlatte/oven/internal/render"
)

var bakeFlags struct {
	output     string
	smart      bool
	copyAssets bool
	copyMisc   bool
	staleness  string
	tree       bool
}

var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Bakes the site into the output directory",
	Long: `The bake command renders posts, pages, tag and category listings and
copies the rest of the site tree into the output directory (default
'<root>/_site'). With smart baking on, files older than the previous bake
are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bakeFlags.output != "" {
			out, err := filepath.Abs(bakeFlags.output)
			if err != nil {
				return err
			}
			appConfig.OutputDir = out
		}
		opts := bakeOptions(cmd, appConfig)
		b, err := newBaker(appConfig, opts, cmd.OutOrStdout(), metrics.New(prometheus.NewRegistry()))
		if err != nil {
			return err
		}
		summary, err := b.Bake()
		if err != nil {
			return fmt.Errorf("bake failed in %s: %w", b.Stage(), err)
		}
		if bakeFlags.tree {
			fmt.Fprintln(cmd.OutOrStdout(), outputTree(appConfig.OutputDir, summary))
		}
		if summary.Errors > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) failed to bake\n", summary.Errors)
		}
		return nil
	},
}

// bakeOptions starts from the configuration and applies the flags given on
// the command line.
func bakeOptions(cmd *cobra.Command, cfg *config.Config) bake.Options {
	opts := bake.OptionsFromConfig(cfg.Baker)
	flags := cmd.Flags()
	if flags.Changed("smart") {
		opts.Smart = bakeFlags.smart
	}
	if flags.Changed("copy-assets") {
		opts.CopyAssets = bakeFlags.copyAssets
	}
	if flags.Changed("copy-misc") {
		opts.CopyMisc = bakeFlags.copyMisc
	}
	if flags.Changed("staleness") {
		opts.Staleness = bakeFlags.staleness
	}
	return opts
}

func newBaker(cfg *config.Config, opts bake.Options, out io.Writer, m *metrics.Metrics) (*bake.Baker, error) {
	cache := render.NewCache(cfg.CachePath())
	r, err := render.New(cfg.TemplatesPath(), cache, log)
	if err != nil {
		return nil, err
	}
	pipeline, err := assets.NewPipeline(cfg.Baker.Processors, render.NewMarkdown(), log)
	if err != nil {
		return nil, err
	}
	return bake.New(cfg, opts, bake.Deps{
		Renderer: r,
		Assets:   pipeline,
		Cache:    cache,
		Metrics:  m,
		Logger:   log,
		Out:      out,
	})
}

func init() {
	f := bakeCmd.Flags()
	f.StringVarP(&bakeFlags.output, "output", "o", "", "output directory (overrides outputDir)")
	f.BoolVar(&bakeFlags.smart, "smart", true, "skip files not modified since the last bake")
	f.BoolVar(&bakeFlags.copyAssets, "copy-assets", false, "copy page assets and pass the site tree through unprocessed")
	f.BoolVar(&bakeFlags.copyMisc, "copy-misc", false, "copy non-page files found in the pages directory")
	f.StringVar(&bakeFlags.staleness, "staleness", "", "staleness test: mtime or hash")
	f.BoolVar(&bakeFlags.tree, "tree", false, "print the tree of files written by this bake")
	rootCmd.AddCommand(bakeCmd)
}
