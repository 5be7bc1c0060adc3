package filter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// AudioURLConfig represents the configuration for AudioURLFilter.
type AudioURLConfig struct {
	AllowedHosts []string `yaml:"allowed_hosts" mapstructure:"allowed_hosts" validate:"dive,hostname_rfc1123"`
	RequireHTTPS bool     `yaml:"require_https" mapstructure:"require_https"`
}

// AudioURLFilter checks that every verse points at a playable http(s) URL,
// optionally restricted to a list of hosts.
type AudioURLFilter struct {
	config *AudioURLConfig
}

// NewAudioURLFilter creates a new audio URL filter.
func NewAudioURLFilter() *AudioURLFilter {
	return &AudioURLFilter{}
}

func (f *AudioURLFilter) Name() string {
	return "audio_url_filter"
}

func (f *AudioURLFilter) Description() string {
	return "Checks that audio URLs are http(s) and on an allowed host"
}

func (f *AudioURLFilter) ReturnCodes() []string {
	return []string{"invalid_audio_url"}
}

func (f *AudioURLFilter) ValidateConfig(settings map[string]any) error {
	var config AudioURLConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("audio url filter config: %+v", config)
	return nil
}

func (f *AudioURLFilter) AppliesTo(origin Origin) bool {
	// The bundled dataset is trusted
	return origin != OriginMigration
}

func (f *AudioURLFilter) Check(ctx context.Context, req UploadRequest) Result {
	if req.Collection == nil {
		return Accept()
	}

	config := f.config
	if config == nil {
		config = &AudioURLConfig{}
	}

	for i, s := range req.Collection.Slokas {
		if !config.allows(s.AudioURL) {
			return Rejectf("invalid_audio_url", fmt.Sprintf("slokas[%d].audioUrl", i))
		}
	}
	return Accept()
}

func (c *AudioURLConfig) allows(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}

	switch u.Scheme {
	case "https":
	case "http":
		if c.RequireHTTPS {
			return false
		}
	default:
		return false
	}

	if len(c.AllowedHosts) == 0 {
		return true
	}
	host := u.Hostname()
	for _, allowed := range c.AllowedHosts {
		if strings.EqualFold(host, allowed) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

func init() {
	Register("audio_url_filter", func() Filter {
		return &AudioURLFilter{}
	})
}
