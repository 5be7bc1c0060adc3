package catalog

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/infra/config"
)

// NewSourceChainFromConfig orders the available sources as listed in
// catalog.sources. A source listed in config but passed as nil is skipped.
func NewSourceChainFromConfig(cfg *config.Config, available map[string]Source) (*SourceChain, error) {
	if len(cfg.Catalog.Sources) == 0 {
		return nil, errors.New("no catalog sources configured")
	}

	var sources []Source
	for i, name := range cfg.Catalog.Sources {
		s, ok := available[name]
		if !ok || s == nil {
			zlog.Warn().Msgf("catalog: source not available, skipping: index=%d name=%s", i+1, name)
			continue
		}
		sources = append(sources, s)
		zlog.Info().Msgf("catalog: registered source: index=%d name=%s", i+1, name)
	}

	if len(sources) == 0 {
		return nil, errors.Newf("none of the configured catalog sources are available: %v", cfg.Catalog.Sources)
	}
	return NewSourceChain(sources...), nil
}

// NewFilterChainFromConfig builds the upload filter chain. Required fields
// are always checked; the other filters are enabled in config.
func NewFilterChainFromConfig(cfg *config.Config, lister filter.CollectionLister) *filter.Chain {
	chain := filter.NewChain()

	// RequiredFieldsFilter
	chain.Add(&filter.RequiredFieldsFilter{})

	// AudioURLFilter
	if cfg.IsFilterEnabled("audio_url_filter") {
		f := filter.NewAudioURLFilter()
		if err := f.ValidateConfig(cfg.GetFilterSettings("audio_url_filter")); err != nil {
			zlog.Error().Msgf("failed to validate audio url filter config: %v", err)
		} else {
			chain.Add(f)
		}
	}

	// VerseLimitFilter
	if cfg.IsFilterEnabled("verse_limit_filter") {
		f := filter.NewVerseLimitFilter()
		if err := f.ValidateConfig(cfg.GetFilterSettings("verse_limit_filter")); err != nil {
			zlog.Error().Msgf("failed to validate verse limit filter config: %v", err)
		} else {
			chain.Add(f)
		}
	}

	// DuplicateCollectionFilter
	if cfg.IsFilterEnabled("duplicate_collection_filter") {
		chain.Add(filter.NewDuplicateCollectionFilter(lister))
	}

	return chain
}
