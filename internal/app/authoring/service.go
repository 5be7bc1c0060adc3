// Package authoring generates transliterations and meanings for new verses.
package authoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/domain/sloka"
	"github.com/osa030/slokabox/internal/infra/cache"
	"github.com/osa030/slokabox/internal/infra/gemini"
)

// Errors
var (
	ErrEmptyText     = errors.New("sanskrit text is required")
	ErrNotConfigured = errors.New("text generation is not configured")
)

// Generator produces text from a conversation.
type Generator interface {
	GenerateContent(ctx context.Context, contents []gemini.Content) (string, error)
}

// Fields are the structured parts of a generated answer.
type Fields struct {
	Transliteration struct {
		English string `json:"english"`
		Telugu  string `json:"telugu"`
	} `json:"transliteration"`
	Meaning struct {
		English string `json:"english"`
		Hindi   string `json:"hindi"`
		Telugu  string `json:"telugu"`
	} `json:"meaning"`
}

// Apply copies the generated fields into s.
func (f *Fields) Apply(s *sloka.Sloka) {
	s.Transliteration = sloka.Transliteration{En: f.Transliteration.English, Te: f.Transliteration.Telugu}
	s.Meaning = sloka.Meaning{En: f.Meaning.English, Hi: f.Meaning.Hindi, Te: f.Meaning.Telugu}
}

// Result is a generated answer. Fields is nil when the answer was not
// the expected JSON object; Raw is always kept.
type Result struct {
	Raw    string  `json:"result"`
	Fields *Fields `json:"fields,omitempty"`
}

// Service generates verse fields, caching answers by input text.
type Service struct {
	generator Generator
	cache     cache.Cache
	ttl       time.Duration
}

// NewService creates an authoring service. A nil generator makes every
// Generate call fail with ErrNotConfigured; a nil cache disables caching.
func NewService(generator Generator, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		generator: generator,
		cache:     c,
		ttl:       ttl,
	}
}

// Configured reports whether a generator is available.
func (s *Service) Configured() bool {
	return s.generator != nil
}

// Generate returns the transliteration and meaning of sanskritText.
func (s *Service) Generate(ctx context.Context, sanskritText string) (*Result, error) {
	text := strings.TrimSpace(sanskritText)
	if text == "" {
		return nil, ErrEmptyText
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	key := cacheKey(text)
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		zlog.Warn().Msgf("authoring: cache get failed: error=%v", err)
	} else if ok {
		var cached Result
		if err := json.Unmarshal(b, &cached); err == nil {
			zlog.Debug().Msgf("authoring: using cached result: key=%s", key)
			return &cached, nil
		}
	}

	raw, err := s.generator.GenerateContent(ctx, conversation(text))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate")
	}

	result := &Result{Raw: raw}
	fields, err := ParseFields(raw)
	if err != nil {
		zlog.Warn().Msgf("authoring: answer is not the expected JSON: error=%v", err)
		return result, nil
	}
	result.Fields = fields

	if b, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			zlog.Warn().Msgf("authoring: cache set failed: error=%v", err)
		}
	}
	return result, nil
}

// ParseFields decodes a generated answer, tolerating a markdown code fence
// around the JSON object.
func ParseFields(raw string) (*Fields, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, errors.New("empty answer")
	}

	var f Fields
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return nil, errors.Wrap(err, "failed to decode answer")
	}
	return &f, nil
}

// StripFences removes a surrounding ``` or ```json fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line.
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "generate:" + hex.EncodeToString(sum[:])
}
