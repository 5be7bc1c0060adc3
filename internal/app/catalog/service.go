package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/domain/sloka"
)

var (
	// ErrNotFound is returned when a collection or verse does not exist in any source.
	ErrNotFound = sloka.ErrNotFound
	// ErrReadOnly is returned by Upload when no source accepts writes.
	ErrReadOnly = errors.New("catalog is read-only")
)

// Service answers catalog queries and accepts uploads.
type Service struct {
	sources *SourceChain
	filters *filter.Chain
}

// NewService creates a catalog service. A nil filter chain only checks
// required fields.
func NewService(sources *SourceChain, filters *filter.Chain) *Service {
	if filters == nil {
		filters = filter.NewChain()
		filters.Add(&filter.RequiredFieldsFilter{})
	}
	return &Service{
		sources: sources,
		filters: filters,
	}
}

// Collections returns every collection.
func (s *Service) Collections(ctx context.Context) ([]sloka.Collection, error) {
	return s.sources.Collections(ctx)
}

// Collection returns the collection with the given ID.
func (s *Service) Collection(ctx context.Context, id int64) (*sloka.Collection, error) {
	return s.sources.Collection(ctx, id)
}

// CollectionBySlug returns the collection whose title slugifies to slug.
func (s *Service) CollectionBySlug(ctx context.Context, slug string) (*sloka.Collection, error) {
	collections, err := s.sources.Collections(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := sloka.FindBySlug(collections, slug)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "collection %q", slug)
	}
	return c, nil
}

// Sloka returns the verse with its collection's grouping fields.
func (s *Service) Sloka(ctx context.Context, id int64) (*sloka.FlattenedSloka, error) {
	return s.sources.Flattened(ctx, id)
}

// ByDeity returns every verse dedicated to deity.
func (s *Service) ByDeity(ctx context.Context, deity string) ([]sloka.FlattenedSloka, error) {
	collections, err := s.sources.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return sloka.FilterByDeity(sloka.Flatten(collections), deity), nil
}

// ByScripture returns every verse of the given scripture type.
func (s *Service) ByScripture(ctx context.Context, scripture string) ([]sloka.FlattenedSloka, error) {
	collections, err := s.sources.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return sloka.FilterByScripture(sloka.Flatten(collections), scripture), nil
}

// Deities returns the distinct deities, sorted.
func (s *Service) Deities(ctx context.Context) ([]string, error) {
	collections, err := s.sources.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return sloka.Deities(collections), nil
}

// Scriptures returns the distinct scripture types, sorted.
func (s *Service) Scriptures(ctx context.Context) ([]string, error) {
	collections, err := s.sources.Collections(ctx)
	if err != nil {
		return nil, err
	}
	return sloka.Scriptures(collections), nil
}

// VerseView is one page of the learn view.
type VerseView struct {
	Collection *sloka.Collection
	Sloka      sloka.FlattenedSloka
	Index      int
	Total      int
}

// HasPrev reports whether a previous verse exists.
func (v *VerseView) HasPrev() bool { return v.Index > 0 }

// HasNext reports whether a next verse exists.
func (v *VerseView) HasNext() bool { return v.Index < v.Total-1 }

// Verse returns the index-th verse of the collection identified by slug.
func (s *Service) Verse(ctx context.Context, slug string, index int) (*VerseView, error) {
	c, err := s.CollectionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.Slokas) {
		return nil, errors.Wrapf(ErrNotFound, "verse %d of %q", index, slug)
	}

	return &VerseView{
		Collection: c,
		Sloka: sloka.FlattenedSloka{
			Sloka:        c.Slokas[index],
			CollectionID: c.ID,
			Deities:      c.Deities,
			Scripture:    c.Scripture,
			Title:        c.Title,
		},
		Index: index,
		Total: len(c.Slokas),
	}, nil
}

// UploadResult describes the outcome of an upload.
type UploadResult struct {
	Accepted     bool
	Code         string // reject code when not accepted
	Detail       string
	CollectionID int64
}

// Upload validates c with the filter chain and stores it. A rejected
// upload is reported in the result, not as an error.
func (s *Service) Upload(ctx context.Context, origin filter.Origin, c *sloka.Collection) (UploadResult, error) {
	result := s.filters.Execute(ctx, filter.UploadRequest{
		Origin:     origin,
		Collection: c,
	})
	if !result.Accepted {
		zlog.Info().Msgf("catalog: upload rejected: origin=%s code=%s detail=%s", origin, result.Code, result.Detail)
		return UploadResult{Code: result.Code, Detail: result.Detail}, nil
	}

	w, ok := s.sources.Writer()
	if !ok {
		return UploadResult{}, ErrReadOnly
	}
	if err := w.InsertCollection(ctx, c); err != nil {
		return UploadResult{}, errors.Wrap(err, "failed to store collection")
	}

	zlog.Info().Msgf("catalog: upload accepted: origin=%s id=%d title=%s slokas=%d", origin, c.ID, c.Title, len(c.Slokas))
	return UploadResult{Accepted: true, CollectionID: c.ID}, nil
}
