package filter

import (
	"context"
	"fmt"
	"strings"
)

// RequiredFieldsFilter rejects uploads with missing collection or verse fields.
// It is always part of the chain.
type RequiredFieldsFilter struct{}

func (f *RequiredFieldsFilter) Name() string {
	return "required_fields"
}

func (f *RequiredFieldsFilter) Description() string {
	return "Requires deities, scripture, title and at least one complete verse"
}

func (f *RequiredFieldsFilter) ReturnCodes() []string {
	return []string{"missing_fields"}
}

func (f *RequiredFieldsFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *RequiredFieldsFilter) AppliesTo(origin Origin) bool {
	return true
}

func (f *RequiredFieldsFilter) Check(ctx context.Context, req UploadRequest) Result {
	c := req.Collection
	if c == nil {
		return Rejectf("missing_fields", "collection")
	}

	switch {
	case len(nonBlank(c.Deities)) == 0:
		return Rejectf("missing_fields", "deities")
	case strings.TrimSpace(c.Scripture) == "":
		return Rejectf("missing_fields", "scripture")
	case strings.TrimSpace(c.Title) == "":
		return Rejectf("missing_fields", "title")
	case len(c.Slokas) == 0:
		return Rejectf("missing_fields", "slokas")
	}

	for i, s := range c.Slokas {
		var missing string
		switch {
		case strings.TrimSpace(s.OriginalText) == "":
			missing = "originalText"
		case s.Transliteration.IsEmpty():
			missing = "transliteration"
		case s.Meaning.IsEmpty():
			missing = "meaning"
		case strings.TrimSpace(s.AudioURL) == "":
			missing = "audioUrl"
		}
		if missing != "" {
			return Rejectf("missing_fields", fmt.Sprintf("slokas[%d].%s", i, missing))
		}
	}

	return Accept()
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
