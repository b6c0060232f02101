// Web server for the go-pokr bill pages
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"

	"github.com/go-while/go-pokr/internal/cache"
	"github.com/go-while/go-pokr/internal/config"
	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/documents"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/glossary"
	"github.com/go-while/go-pokr/internal/logging"
	"github.com/go-while/go-pokr/internal/web"
)

var Prof *prof.Profiler

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	logger := logging.New(os.Stderr, "pokr-web")
	logging.SetDefault(logger)
	ctx := logging.WithAttrs(context.Background(), slog.String("component", "main"))

	var flags webFlags
	flags.register(flag.CommandLine)
	flag.Parse()

	mainConfig, err := config.Load(flags.configPath)
	if err != nil {
		fatal(ctx, "load config", err)
	}
	mainConfig.AppVersion = appVersion
	flags.apply(mainConfig)
	if err := mainConfig.Validate(); err != nil {
		fatal(ctx, "invalid configuration", err)
	}
	log.Printf("Starting go-pokr: Web Server (version: %s)", appVersion)
	log.Printf("[WEB]: config loaded - port: %d, ssl: %t, db: %s, docroot: %s",
		mainConfig.Web.ListenPort, mainConfig.Web.SSL, mainConfig.Database.Path, mainConfig.Documents.Root)

	if flags.pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(flags.pprofAddr)
		log.Printf("[WEB]: pprof enabled on %s", flags.pprofAddr)
	}

	db, err := database.OpenDatabase(ctx, database.NewDBConfig(mainConfig))
	if err != nil {
		fatal(ctx, "open database", err)
	}
	defer db.Close()

	glossaryCache := cache.NewMemoryCache(64)
	defer glossaryCache.Stop()
	renderer, err := glossary.NewRenderer(mainConfig.Glossary.DataDir, glossaryCache, mainConfig.Glossary.CacheTTL)
	if err != nil {
		fatal(ctx, "glossary", err)
	}
	docs := documents.NewStore(mainConfig.Documents.Root, mainConfig.Documents.Charset)

	server, err := web.NewServer(db, docs, renderer, &mainConfig.Web)
	if err != nil {
		fatal(ctx, "web server", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("[WEB]: Received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			logging.Error(ctx, "web server stopped", slog.Any("err", errs.Loggable(err)))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "graceful shutdown failed", slog.Any("err", errs.Loggable(err)))
	}
	stats := glossaryCache.GetStats()
	log.Printf("[WEB]: Shutdown complete - glossary cache hits: %d, misses: %d", stats.Hits, stats.Misses)
}

func fatal(ctx context.Context, msg string, err error) {
	logging.Error(ctx, msg, slog.Any("err", errs.Loggable(err)))
	os.Exit(1)
}
