// Package catalog serves collections and verses from an ordered chain of
// content sources and accepts new collections through the upload filters.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// Source provides collections and verses.
type Source interface {
	// Name returns the source name used in config and logs.
	Name() string
	Collections(ctx context.Context) ([]sloka.Collection, error)
	Collection(ctx context.Context, id int64) (*sloka.Collection, error)
	// Sloka returns the verse and the ID of the collection it belongs to.
	Sloka(ctx context.Context, id int64) (*sloka.Sloka, int64, error)
}

// Writer is implemented by sources that accept new collections.
type Writer interface {
	InsertCollection(ctx context.Context, c *sloka.Collection) error
}

// SourceChain merges sources into one catalog view. Sources are listed in
// order and an earlier source shadows a later collection with the same
// scripture and title slug, or one that reuses a collection or verse ID
// already taken. Lookups by ID only answer from collections in the view.
type SourceChain struct {
	sources []Source
}

// NewSourceChain creates a new source chain.
func NewSourceChain(sources ...Source) *SourceChain {
	return &SourceChain{
		sources: sources,
	}
}

// Name returns the chain name.
func (c *SourceChain) Name() string {
	return "source_chain"
}

// Collections returns the merged listing of every source. A failing source
// is skipped unless all of them fail.
func (c *SourceChain) Collections(ctx context.Context) ([]sloka.Collection, error) {
	merged, failed, lastErr := c.merge(ctx, c.sources)
	if failed > 0 && failed == len(c.sources) {
		return nil, errors.Wrap(lastErr, "all sources failed")
	}
	return merged, nil
}

// Collection returns the collection with the given ID from the merged view.
func (c *SourceChain) Collection(ctx context.Context, id int64) (*sloka.Collection, error) {
	var found *sloka.Collection
	err := c.each(ctx, func(i int, s Source) error {
		col, err := s.Collection(ctx, id)
		if err != nil {
			return err
		}
		if !c.visible(ctx, i, col) {
			return sloka.ErrNotFound
		}
		found = col
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collection %d", id)
	}
	return found, nil
}

// Sloka returns the verse with the given ID from the merged view.
func (c *SourceChain) Sloka(ctx context.Context, id int64) (*sloka.Sloka, int64, error) {
	f, err := c.Flattened(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return &f.Sloka, f.CollectionID, nil
}

// Flattened returns the verse with its collection's grouping fields. Both
// lookups are answered by the same source so IDs never mix across sources.
func (c *SourceChain) Flattened(ctx context.Context, id int64) (*sloka.FlattenedSloka, error) {
	var found *sloka.FlattenedSloka
	err := c.each(ctx, func(i int, s Source) error {
		v, cid, err := s.Sloka(ctx, id)
		if err != nil {
			return err
		}
		col, err := s.Collection(ctx, cid)
		if err != nil {
			return err
		}
		if !c.visible(ctx, i, col) {
			return sloka.ErrNotFound
		}
		found = &sloka.FlattenedSloka{
			Sloka:        *v,
			CollectionID: col.ID,
			Deities:      col.Deities,
			Scripture:    col.Scripture,
			Title:        col.Title,
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "sloka %d", id)
	}
	return found, nil
}

// Writer returns the first source that accepts new collections.
func (c *SourceChain) Writer() (Writer, bool) {
	for _, s := range c.sources {
		if w, ok := s.(Writer); ok {
			return w, true
		}
	}
	return nil, false
}

// each calls fn for every source until one succeeds. Not found falls
// through silently, other errors are logged. The returned error is
// ErrNotFound unless every source failed with something else.
func (c *SourceChain) each(ctx context.Context, fn func(int, Source) error) error {
	var lastErr error
	notFound := false
	for i, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(i, s)
		if err == nil {
			return nil
		}
		if errors.Is(err, sloka.ErrNotFound) {
			notFound = true
			continue
		}
		zlog.Warn().Msgf("catalog: source failed, trying next: source=%s error=%v", s.Name(), err)
		lastErr = err
	}

	if notFound || lastErr == nil {
		return ErrNotFound
	}
	return lastErr
}

// merge lists sources in order and drops shadowed collections.
func (c *SourceChain) merge(ctx context.Context, sources []Source) ([]sloka.Collection, int, error) {
	merged := []sloka.Collection{}
	failed := 0
	var lastErr error
	for i, s := range sources {
		zlog.Debug().Msgf("catalog: listing collections: index=%d total=%d source=%s", i+1, len(sources), s.Name())

		collections, err := s.Collections(ctx)
		if err != nil {
			zlog.Warn().Msgf("catalog: source failed, skipping: source=%s error=%v", s.Name(), err)
			failed++
			lastErr = err
			continue
		}
		for j := range collections {
			if shadowed(merged, &collections[j]) {
				zlog.Debug().Msgf("catalog: collection shadowed: source=%s id=%d title=%s", s.Name(), collections[j].ID, collections[j].Title)
				continue
			}
			merged = append(merged, collections[j])
		}
	}
	return merged, failed, lastErr
}

// visible reports whether col, answered by source i, is part of the view.
func (c *SourceChain) visible(ctx context.Context, i int, col *sloka.Collection) bool {
	if i == 0 {
		return true
	}
	earlier, _, _ := c.merge(ctx, c.sources[:i])
	return !shadowed(earlier, col)
}

func shadowed(view []sloka.Collection, col *sloka.Collection) bool {
	verses := make(map[int64]struct{}, len(col.Slokas))
	for _, v := range col.Slokas {
		verses[v.ID] = struct{}{}
	}
	for i := range view {
		other := &view[i]
		if other.ID == col.ID {
			return true
		}
		if sloka.Slugify(other.Scripture) == sloka.Slugify(col.Scripture) && other.Slug() == col.Slug() {
			return true
		}
		for _, v := range other.Slokas {
			if _, ok := verses[v.ID]; ok {
				return true
			}
		}
	}
	return false
}
