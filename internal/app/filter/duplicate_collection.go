package filter

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// CollectionLister lists existing collections.
type CollectionLister interface {
	Collections(ctx context.Context) ([]sloka.Collection, error)
}

// DuplicateCollectionFilter rejects a collection whose scripture and title
// already exist. Titles are compared by slug, so case and punctuation
// differences still count as duplicates.
type DuplicateCollectionFilter struct {
	lister CollectionLister
}

// NewDuplicateCollectionFilter creates a new duplicate collection filter.
func NewDuplicateCollectionFilter(lister CollectionLister) *DuplicateCollectionFilter {
	return &DuplicateCollectionFilter{
		lister: lister,
	}
}

func (f *DuplicateCollectionFilter) Name() string {
	return "duplicate_collection_filter"
}

func (f *DuplicateCollectionFilter) Description() string {
	return "Rejects a collection whose scripture and title already exist"
}

func (f *DuplicateCollectionFilter) ReturnCodes() []string {
	return []string{"duplicate_collection"}
}

func (f *DuplicateCollectionFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

func (f *DuplicateCollectionFilter) AppliesTo(origin Origin) bool {
	return true
}

func (f *DuplicateCollectionFilter) Check(ctx context.Context, req UploadRequest) Result {
	if req.Collection == nil {
		return Accept()
	}

	existing, err := f.lister.Collections(ctx)
	if err != nil {
		zlog.Warn().Msgf("duplicate collection filter: failed to list collections, skipping: %v", err)
		return Accept()
	}

	for i := range existing {
		if isSameCollection(&existing[i], req.Collection) {
			return Rejectf("duplicate_collection", existing[i].Title)
		}
	}
	return Accept()
}

func isSameCollection(a, b *sloka.Collection) bool {
	if !strings.EqualFold(strings.TrimSpace(a.Scripture), strings.TrimSpace(b.Scripture)) {
		return false
	}
	return a.Slug() == b.Slug()
}

