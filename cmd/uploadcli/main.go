// Package main provides the upload CLI: it authors a collection from a
// YAML file, optionally pre-filling transliteration and meaning, and
// stores it through the catalog's filter chain.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/slokabox/internal/app/authoring"
	"github.com/osa030/slokabox/internal/app/catalog"
	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/domain/sloka"
	"github.com/osa030/slokabox/internal/infra/cache"
	"github.com/osa030/slokabox/internal/infra/config"
	"github.com/osa030/slokabox/internal/infra/gemini"
	"github.com/osa030/slokabox/internal/infra/logger"
	"github.com/osa030/slokabox/internal/infra/store"
)

var (
	app        = kingpin.New("slokabox-uploadcli", "slokabox collection upload tool")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	prefill    = app.Flag("prefill", "Generate missing transliterations and meanings").Bool()
	dryRun     = app.Flag("dry-run", "Print the collection instead of storing it").Bool()
	file       = app.Arg("file", "Collection YAML file").Required().ExistingFile()
)

// collectionFile is the YAML layout of one collection.
type collectionFile struct {
	Deities   []string    `yaml:"deities"`
	Scripture string      `yaml:"scripture"`
	Title     string      `yaml:"title"`
	Slokas    []slokaFile `yaml:"slokas"`
}

type slokaFile struct {
	OriginalText    string                `yaml:"original_text"`
	Transliteration sloka.Transliteration `yaml:"transliteration,omitempty"`
	Meaning         sloka.Meaning         `yaml:"meaning,omitempty"`
	AudioURL        string                `yaml:"audio_url"`
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stderr", Level: "info"}
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
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	c, err := readCollection(*file)
	if err != nil {
		return err
	}

	if *prefill {
		svc, closeFn, err := newAuthoring(cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := prefillCollection(ctx, svc, c); err != nil {
			return err
		}
	}

	if *dryRun {
		out, err := yaml.Marshal(toFile(c))
		if err != nil {
			return errors.Wrap(err, "failed to encode collection")
		}
		fmt.Print(string(out))
		return nil
	}

	if !cfg.Database.Enabled() {
		return errors.New("database.dsn (or DATABASE_DSN) is required to upload")
	}
	st, err := store.Open(store.Config{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.Database.DSN,
		AutoMigrate: cfg.Database.AutoMigrate,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	sources := catalog.NewSourceChain(st)
	svc := catalog.NewService(sources, catalog.NewFilterChainFromConfig(cfg, sources))

	result, err := svc.Upload(ctx, filter.OriginCLI, c)
	if err != nil {
		return err
	}
	if !result.Accepted {
		fmt.Printf("Rejected [%s]: %s (%s)\n", result.Code, cfg.GetMessage(result.Code), result.Detail)
		os.Exit(2)
	}

	fmt.Printf("%s: id=%d slug=%s verses=%d\n", cfg.GetMessage("success"), result.CollectionID, c.Slug(), len(c.Slokas))
	return nil
}

func readCollection(path string) (*sloka.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read collection file")
	}

	var f collectionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse collection file")
	}

	c := &sloka.Collection{
		Deities:   f.Deities,
		Scripture: f.Scripture,
		Title:     f.Title,
		Slokas:    make([]sloka.Sloka, len(f.Slokas)),
	}
	for i, s := range f.Slokas {
		c.Slokas[i] = sloka.Sloka{
			OriginalText:    s.OriginalText,
			Transliteration: s.Transliteration,
			Meaning:         s.Meaning,
			AudioURL:        s.AudioURL,
		}
	}
	return c, nil
}

func toFile(c *sloka.Collection) collectionFile {
	f := collectionFile{
		Deities:   c.Deities,
		Scripture: c.Scripture,
		Title:     c.Title,
		Slokas:    make([]slokaFile, len(c.Slokas)),
	}
	for i, s := range c.Slokas {
		f.Slokas[i] = slokaFile{
			OriginalText:    s.OriginalText,
			Transliteration: s.Transliteration,
			Meaning:         s.Meaning,
			AudioURL:        s.AudioURL,
		}
	}
	return f
}

func newAuthoring(cfg *config.Config) (*authoring.Service, func(), error) {
	client, err := gemini.New(gemini.Config{
		APIKey:  cfg.Authoring.Gemini.APIKey,
		Model:   cfg.Authoring.Gemini.Model,
		BaseURL: cfg.Authoring.Gemini.BaseURL,
		Timeout: cfg.Authoring.Gemini.Timeout(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "--prefill needs GEMINI_API_KEY")
	}

	c, err := cache.New(cfg.Authoring.Cache)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = c.Close() }
	return authoring.NewService(client, c, cfg.Authoring.Cache.TTL()), closeFn, nil
}

// prefillCollection generates the transliteration and meaning of every
// verse that lacks them. Fields already present are kept.
func prefillCollection(ctx context.Context, svc *authoring.Service, c *sloka.Collection) error {
	for i := range c.Slokas {
		s := &c.Slokas[i]
		if !s.Transliteration.IsEmpty() && !s.Meaning.IsEmpty() {
			continue
		}
		if s.OriginalText == "" {
			continue
		}

		res, err := svc.Generate(ctx, s.OriginalText)
		if err != nil {
			return errors.Wrapf(err, "failed to prefill verse %d", i+1)
		}
		if res.Fields == nil {
			zlog.Warn().Msgf("uploadcli: unstructured answer, verse left as is: index=%d", i+1)
			continue
		}

		before := *s
		res.Fields.Apply(s)
		if !before.Transliteration.IsEmpty() {
			s.Transliteration = before.Transliteration
		}
		if !before.Meaning.IsEmpty() {
			s.Meaning = before.Meaning
		}
		zlog.Info().Msgf("uploadcli: prefilled verse: index=%d", i+1)
	}
	return nil
}
