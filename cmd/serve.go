package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/assets"
	"github.com/Bitlatte/oven/internal/bake"
	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/dirbake"
	"github.com/Bitlatte/oven/internal/metrics"
	"github.com/Bitlatte/oven/internal/render"
	"github.com/Bitlatte/oven/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site locally, rendering pages on request",
	Long: `The serve command starts a development web server. Files of the site
tree are baked into the server cache when requested, and pages, posts and
listings are rendered on the fly so every edit shows up on reload.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		pipeline, err := assets.NewPipeline(cfg.Baker.Processors, render.NewMarkdown(), log)
		if err != nil {
			return err
		}
		index := server.NewOutputIndex()
		ix, err := dirbake.New(cfg.Root, cfg.Server.CacheDir, pipeline, index, dirbake.Options{
			Smart:         true,
			SkipPatterns:  append(bake.SiteTreeSkips(cfg.Root, cfg.OutputDir), cfg.Baker.SkipPatterns...),
			ForcePatterns: cfg.Baker.ForcePatterns,
		}, log)
		if err != nil {
			return err
		}
		rec := server.NewReconciler(ix, index, cfg.Server.CacheDir, m, log)
		if _, err := rec.Prime(); err != nil {
			return err
		}
		srv := server.New(fmt.Sprintf(":%d", cfg.Server.Port), rec, &livePages{cfg: cfg, metrics: m}, reg, log)

		watcher, err := server.NewWatcher(cfg.Root, index, []string{cfg.OutputDir, cfg.CachePath()}, log)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Root, err)
		}
		defer watcher.Close()
		watcher.OnChange = func(path string, op fsnotify.Op) {
			log.Info("change detected", zap.String("path", path), zap.String("op", op.String()))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go watcher.Run(ctx)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("server shutdown", zap.Error(err))
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost:%d\nPress Ctrl+C to stop the server.\n", cfg.Root, cfg.Server.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start HTTP server: %w", err)
		}
		return nil
	},
}

// livePages builds a fresh baker for every request so template edits are
// picked up without a restart.
type livePages struct {
	cfg     *config.Config
	metrics *metrics.Metrics
}

func (p *livePages) RenderURI(requestURI string) ([]byte, error) {
	b, err := newBaker(p.cfg, bake.OptionsFromConfig(p.cfg.Baker), io.Discard, p.metrics)
	if err != nil {
		return nil, err
	}
	return b.RenderURI(requestURI)
}

func (p *livePages) PageAsset(requestPath string) (string, bool) {
	b, err := newBaker(p.cfg, bake.OptionsFromConfig(p.cfg.Baker), io.Discard, p.metrics)
	if err != nil {
		return "", false
	}
	return b.PageAsset(requestPath)
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
