package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vigilsec/argus/internal/api"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
	"github.com/vigilsec/argus/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the REST API server for submitting workflow runs, querying
run status and retrieving orphaned results. Progress streams to
subscribed clients over SSE.

The config file is watched; edits apply to new runs, never to runs
already in flight.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default from config, else :8080)")
}

// reloadableRunner swaps the orchestrator under config reloads while
// keeping the HTTP surface, run registry and session hub stable.
type reloadableRunner struct {
	orch atomic.Pointer[service.Orchestrator]
}

func (r *reloadableRunner) Run(ctx context.Context, req core.WorkflowRequest) (*service.RunOutcome, error) {
	return r.orch.Load().Run(ctx, req)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	registry := service.NewRunRegistry()
	hub := api.NewSessionHub()

	orch, sink, err := buildOrchestrator(cfg, hub, registry, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Warn("closing results store", "error", closeErr)
		}
	}()

	runner := &reloadableRunner{}
	runner.orch.Store(orch)

	server := api.NewServer(runner, registry, sink, hub,
		api.WithLogger(log),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
	)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if file := loader.ConfigFile(); file != "" {
		stopWatch, err := watchConfig(file, log, func() {
			newCfg, _, loadErr := loadConfig()
			if loadErr != nil {
				log.Warn("config reload failed, keeping previous config", "error", loadErr)
				return
			}
			// Results backend changes need a restart; everything else
			// applies to the next run.
			newOrch, newSink, buildErr := buildOrchestrator(newCfg, hub, registry, log)
			if buildErr != nil {
				log.Warn("config reload failed, keeping previous config", "error", buildErr)
				return
			}
			_ = newSink.Close()
			runner.orch.Store(newOrch)
			log.Info("configuration reloaded", "file", file)
		})
		if err != nil {
			log.Warn("config watch unavailable", "error", err)
		} else {
			defer stopWatch()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := httpServer.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	log.Info("server started", "addr", addr)

	select {
	case serveErr := <-errCh:
		return fmt.Errorf("server: %w", serveErr)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// watchConfig watches a config file and invokes onChange, debounced,
// when it is written or replaced. Editors that swap files emit several
// events per save.
func watchConfig(path string, log *logging.Logger, onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: rename-and-replace saves drop the watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var debounce *time.Timer
		for {
			select {
			case <-done:
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(250*time.Millisecond, onChange)

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", "error", watchErr)
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}
