// Package main imports the static verse dataset into the relational store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/catalog"
	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/infra/config"
	"github.com/osa030/slokabox/internal/infra/dataset"
	"github.com/osa030/slokabox/internal/infra/logger"
	"github.com/osa030/slokabox/internal/infra/store"
)

var (
	app         = kingpin.New("slokabox-migrate", "Import the verse dataset into the database")
	configPath  = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	datasetPath = app.Flag("dataset", "Dataset JSON file (default: dataset.path or the bundled dataset)").String()
	verbose     = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	schemaOnly  = app.Flag("schema-only", "Only create or update the tables").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if _, err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		zlog.Error().Msgf("Migration failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		return errors.New("database.dsn (or DATABASE_DSN) is required")
	}

	st, err := store.Open(store.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	zlog.Info().Msg("Schema is up to date")
	if *schemaOnly {
		return nil
	}

	path := *datasetPath
	if path == "" {
		path = cfg.Dataset.Path
	}
	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}

	imported, skipped, err := importDataset(ctx, ds, st)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("Import finished: imported=%d skipped=%d", imported, skipped)
	return nil
}

// importDataset uploads every dataset collection into the store. Collections
// the store already has are skipped, so the import can be re-run.
func importDataset(ctx context.Context, ds *dataset.Dataset, st *store.Store) (imported, skipped int, err error) {
	sources := catalog.NewSourceChain(st)

	chain := filter.NewChain()
	chain.Add(&filter.RequiredFieldsFilter{})
	chain.Add(filter.NewDuplicateCollectionFilter(sources))
	svc := catalog.NewService(sources, chain)

	collections, err := ds.Collections(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i := range collections {
		c := collections[i]
		c.ID = 0
		for j := range c.Slokas {
			c.Slokas[j].ID = 0
		}

		result, err := svc.Upload(ctx, filter.OriginMigration, &c)
		if err != nil {
			return imported, skipped, errors.Wrapf(err, "collection %q", c.Title)
		}
		if !result.Accepted {
			zlog.Warn().Msgf("Skipped collection: title=%s code=%s detail=%s", c.Title, result.Code, result.Detail)
			skipped++
			continue
		}
		zlog.Info().Msgf("Imported collection: title=%s id=%d slokas=%d", c.Title, result.CollectionID, len(c.Slokas))
		imported++
	}
	return imported, skipped, nil
}
