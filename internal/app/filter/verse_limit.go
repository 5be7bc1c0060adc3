package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// VerseLimitConfig represents the configuration for VerseLimitFilter.
type VerseLimitConfig struct {
	MaxVerses int `yaml:"max_verses" mapstructure:"max_verses" default:"108" validate:"gte=1"`
}

// VerseLimitFilter limits how many verses one upload may contain.
type VerseLimitFilter struct {
	config *VerseLimitConfig
}

// NewVerseLimitFilter creates a new verse limit filter.
func NewVerseLimitFilter() *VerseLimitFilter {
	return &VerseLimitFilter{}
}

func (f *VerseLimitFilter) Name() string {
	return "verse_limit_filter"
}

func (f *VerseLimitFilter) Description() string {
	return "Limits the number of verses in one uploaded collection"
}

func (f *VerseLimitFilter) ReturnCodes() []string {
	return []string{"verse_limit_exceeded"}
}

func (f *VerseLimitFilter) ValidateConfig(settings map[string]any) error {
	var config VerseLimitConfig

	// Decode map[string]any to struct using mapstructure
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	// Set defaults
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	// Validate using validator
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("verse limit filter config: %+v", config)
	return nil
}

func (f *VerseLimitFilter) AppliesTo(origin Origin) bool {
	return origin != OriginMigration
}

func (f *VerseLimitFilter) Check(ctx context.Context, req UploadRequest) Result {
	// If config is not set, accept all uploads
	if f.config == nil || req.Collection == nil {
		return Accept()
	}

	if len(req.Collection.Slokas) > f.config.MaxVerses {
		return Reject("verse_limit_exceeded")
	}
	return Accept()
}

func init() {
	Register("verse_limit_filter", func() Filter {
		return &VerseLimitFilter{}
	})
}
