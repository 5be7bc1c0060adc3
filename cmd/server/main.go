// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/slokabox/internal/api/connect"
	"github.com/osa030/slokabox/internal/api/playerv1/playerv1connect"
	"github.com/osa030/slokabox/internal/api/rest"
	"github.com/osa030/slokabox/internal/app/authoring"
	"github.com/osa030/slokabox/internal/app/catalog"
	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/app/player"
	"github.com/osa030/slokabox/internal/infra/cache"
	"github.com/osa030/slokabox/internal/infra/config"
	"github.com/osa030/slokabox/internal/infra/dataset"
	"github.com/osa030/slokabox/internal/infra/gemini"
	"github.com/osa030/slokabox/internal/infra/logger"
	"github.com/osa030/slokabox/internal/infra/store"
)

var (
	app        = kingpin.New("slokabox-server", "slokabox catalog and player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run wires every component and serves until a shutdown signal.
func run(cfg *config.Config) error {
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	ds, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	available := map[string]catalog.Source{
		config.SourceDataset: ds,
	}
	if cfg.Database.Enabled() {
		st, err := store.Open(store.Config{
			Driver:      cfg.Database.Driver,
			DSN:         cfg.Database.DSN,
			AutoMigrate: cfg.Database.AutoMigrate,
		})
		if err != nil {
			return err
		}
		defer st.Close()
		available[config.SourceStore] = st
	}

	sources, err := catalog.NewSourceChainFromConfig(cfg, available)
	if err != nil {
		return err
	}
	catalogService := catalog.NewService(sources, catalog.NewFilterChainFromConfig(cfg, sources))

	resultCache, err := cache.New(cfg.Authoring.Cache)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	var generator authoring.Generator
	if cfg.Authoring.Gemini.APIKey != "" {
		client, err := gemini.New(gemini.Config{
			APIKey:  cfg.Authoring.Gemini.APIKey,
			Model:   cfg.Authoring.Gemini.Model,
			BaseURL: cfg.Authoring.Gemini.BaseURL,
			Timeout: cfg.Authoring.Gemini.Timeout(),
		})
		if err != nil {
			return err
		}
		generator = client
	}
	authoringService := authoring.NewService(generator, resultCache, cfg.Authoring.Cache.TTL())
	if !authoringService.Configured() {
		zlog.Warn().Msg("GEMINI_API_KEY not set, /api/generate-sloka will answer 500")
	}

	players := player.NewManager(cfg, catalogService)

	router := rest.NewRouter(rest.RouterConfig{
		CORSOrigins:      cfg.Server.CORSOrigins,
		HealthHandler:    rest.NewHealthHandler(),
		CatalogHandler:   rest.NewCatalogHandler(catalogService),
		UploadHandler:    rest.NewUploadHandler(catalogService, cfg),
		AuthoringHandler: rest.NewAuthoringHandler(authoringService),
	})

	mux := http.NewServeMux()
	playerPath, playerHandler := playerv1connect.NewPlayerServiceHandler(
		apiconnect.NewPlayerService(players),
		connect.WithInterceptors(apiconnect.NewLoggingInterceptor()),
	)
	mux.Handle(playerPath, playerHandler)
	mux.Handle("/", router)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		players.Start(ctx)
	}()

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s sources=%v", cfg.Server.Addr, cfg.Catalog.Sources)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the listener a moment before hooks probe it.
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close players first so Subscribe streams return before Shutdown waits on them.
	cancel()
	<-reaperDone
	players.CloseAll()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printFilters prints available filters, including the ones built with
// dependencies and therefore not in the registry.
func printFilters() {
	filters := []filter.Filter{
		&filter.RequiredFieldsFilter{},
		filter.NewDuplicateCollectionFilter(nil),
	}
	for _, factory := range filter.GetRegistered() {
		filters = append(filters, factory())
	}
	sort.Slice(filters, func(i, j int) bool { return filters[i].Name() < filters[j].Name() })

	fmt.Println("Available Filters:")
	for _, f := range filters {
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validateFilterConfig validates filter configurations.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			// Some filters are created with dependencies, skip validation
			continue
		}

		f := factory()
		if err := f.ValidateConfig(filterCfg.Settings); err != nil {
			return errors.Wrapf(err, "filter %s", filterName)
		}
	}

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
