// Command webdiffengine starts the web diff engine's HTTP API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/raysh454/webdiffengine/internal/compare"
	wdeconfig "github.com/raysh454/webdiffengine/internal/config"
	"github.com/raysh454/webdiffengine/internal/httpapi"
	"github.com/raysh454/webdiffengine/internal/interfaces"
	"github.com/raysh454/webdiffengine/internal/logging"
	"github.com/raysh454/webdiffengine/internal/merge"
	"github.com/raysh454/webdiffengine/internal/report"
	"github.com/raysh454/webdiffengine/internal/storage"
	"github.com/raysh454/webdiffengine/internal/testrunner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "webdiffengine",
		Short: "Web Diff Engine - capture-aware DOM/API regression testing server",
		Long: `webdiffengine serves the comparison, merge, regression test-runner and
report-generation API over a project's capture tree (see STORAGE_PATH).`,
		RunE: runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./webdiffengine.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webdiffengine %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	cfg, err := wdeconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewStdoutLogger("webdiffengine", false)

	gw, err := storage.New(cfg.StorageRoot)
	if err != nil {
		return fmt.Errorf("opening storage root: %w", err)
	}

	cmp := compare.New(gw, logger)
	mrg := merge.New(gw, logger)
	runner := testrunner.New(gw, cmp, logger)
	rep := report.New(gw, cmp, logger)

	srv, err := httpapi.NewServer(httpapi.Config{
		ListenAddr: cfg.ListenAddr,
		Storage:    gw,
		Compare:    cmp,
		Merge:      mrg,
		TestRunner: runner,
		Report:     rep,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("constructing http server: %w", err)
	}
	defer srv.Close()

	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", interfaces.Field{Key: "addr", Value: httpServer.Addr}, interfaces.Field{Key: "storage", Value: cfg.StorageRoot})
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
