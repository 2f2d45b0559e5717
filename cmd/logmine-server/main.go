// Command logmine-server runs the log-pattern extraction engine as a
// standalone service: TCP and OTLP intake feed a logmine.Facade, a
// read-only HTTP API exposes its pattern snapshot, and a background
// goroutine periodically flushes that snapshot to DuckDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/logmine"
	"github.com/tinytelemetry/logmine/internal/config"
	"github.com/tinytelemetry/logmine/internal/httpserver"
	"github.com/tinytelemetry/logmine/internal/otlpintake"
	"github.com/tinytelemetry/logmine/internal/patternstore"
	"github.com/tinytelemetry/logmine/internal/tcpintake"
)

// Build variables - set by ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logmine/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("logmine-server\n  Version: %s\n  Commit:  %s\n", version, commit)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("logmine-server: engine config: %w", err)
	}

	mode := logmine.Streaming
	if cfg.Mode == "batch" {
		mode = logmine.Batch
	}

	facade, err := logmine.NewFacade(engineCfg, mode, cfg.BatchBufferSize)
	if err != nil {
		return fmt.Errorf("logmine-server: new facade: %w", err)
	}

	store, err := patternstore.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("logmine-server: new pattern store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("logmine-server: shutting down gracefully...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.TCPEnabled {
		tcpServer := tcpintake.NewServer(cfg.TCPAddr, facade)
		if err := tcpServer.Start(); err != nil {
			return fmt.Errorf("logmine-server: start tcp intake: %w", err)
		}
		log.Printf("logmine-server: tcp intake listening on %s", tcpServer.Addr())
		defer tcpServer.Stop()
	}

	if cfg.OTLPEnabled {
		otlpServer := otlpintake.NewServer(cfg.OTLPAddr, facade)
		if err := otlpServer.Start(); err != nil {
			return fmt.Errorf("logmine-server: start otlp intake: %w", err)
		}
		log.Printf("logmine-server: otlp intake listening on %s", otlpServer.Addr())
		defer otlpServer.Stop()
	}

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, facade)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("logmine-server: start http api: %w", err)
		}
		log.Printf("logmine-server: http api listening on %s", cfg.APIAddr)
		defer apiServer.Stop()
	}

	g.Go(func() error {
		flushPatternSnapshots(gctx, facade, store, cfg.FlushInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("logmine-server: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	return nil
}

// flushPatternSnapshots periodically writes the facade's current pattern
// snapshot to the pattern store until ctx is cancelled. The engine never
// reads this store back — it exists purely so an operator can inspect
// pattern history across restarts.
func flushPatternSnapshots(ctx context.Context, facade *logmine.Facade, store *patternstore.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func() {
		patterns := facade.GetCurrentPatterns()
		if len(patterns) == 0 {
			return
		}
		written, err := store.UpsertSnapshot(patterns, "logmine-server", "default")
		if err != nil {
			log.Printf("logmine-server: pattern flush failed: %v", err)
			return
		}
		log.Printf("logmine-server: flushed %d patterns to pattern store", written)
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
