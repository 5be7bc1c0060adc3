// Package filter provides the filter chain for upload validation.
package filter

import (
	"context"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// Origin identifies where an upload came from.
type Origin int

const (
	OriginAPI       Origin = iota // REST upload form
	OriginCLI                     // uploadcli
	OriginMigration               // dataset import
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginAPI:
		return "api"
	case OriginCLI:
		return "cli"
	case OriginMigration:
		return "migration"
	default:
		return "unknown"
	}
}

// UploadRequest represents a collection upload to be validated.
type UploadRequest struct {
	Origin     Origin
	Collection *sloka.Collection
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "missing_fields", "verse_limit_exceeded"
	Detail   string // Which field or verse caused the rejection
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Rejectf returns a rejected result with the given code and detail.
func Rejectf(code, detail string) Result {
	return Result{Accepted: false, Code: code, Detail: detail}
}

// Filter is the interface for upload filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to uploads from origin.
	AppliesTo(origin Origin) bool
	// Check performs the filter check.
	Check(ctx context.Context, req UploadRequest) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
