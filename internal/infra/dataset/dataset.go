// Package dataset loads the static verse dataset used for offline and demo use.
package dataset

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// ErrNotFound is returned when a collection or verse does not exist.
var ErrNotFound = sloka.ErrNotFound

//go:embed slokas.json
var bundled []byte

// Dataset is an immutable in-memory set of collections.
type Dataset struct {
	collections []sloka.Collection
}

// Load reads the dataset at path, or the bundled dataset when path is empty.
func Load(path string) (*Dataset, error) {
	data := bundled
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read dataset")
		}
		data = b
	}

	collections, err := Parse(data)
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("dataset: loaded: path=%q collections=%d", path, len(collections))
	return &Dataset{collections: collections}, nil
}

// Parse decodes a JSON array of collections. Collections without an ID
// are numbered by position, starting at 1.
func Parse(data []byte) ([]sloka.Collection, error) {
	var collections []sloka.Collection
	if err := json.Unmarshal(data, &collections); err != nil {
		return nil, errors.Wrap(err, "failed to parse dataset")
	}
	for i := range collections {
		if collections[i].ID == 0 {
			collections[i].ID = int64(i + 1)
		}
		if collections[i].Deities == nil {
			collections[i].Deities = []string{}
		}
	}
	return collections, nil
}

// Name identifies the dataset as a catalog source.
func (d *Dataset) Name() string {
	return "dataset"
}

// Collections returns a copy of all collections.
func (d *Dataset) Collections(_ context.Context) ([]sloka.Collection, error) {
	out := make([]sloka.Collection, len(d.collections))
	for i := range d.collections {
		out[i] = clone(d.collections[i])
	}
	return out, nil
}

// Collection returns a copy of the collection with the given ID.
func (d *Dataset) Collection(_ context.Context, id int64) (*sloka.Collection, error) {
	for i := range d.collections {
		if d.collections[i].ID == id {
			c := clone(d.collections[i])
			return &c, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "collection %d", id)
}

// Sloka returns the verse with the given ID and the ID of its collection.
func (d *Dataset) Sloka(_ context.Context, id int64) (*sloka.Sloka, int64, error) {
	for _, c := range d.collections {
		for _, s := range c.Slokas {
			if s.ID == id {
				v := s
				return &v, c.ID, nil
			}
		}
	}
	return nil, 0, errors.Wrapf(ErrNotFound, "sloka %d", id)
}

func clone(c sloka.Collection) sloka.Collection {
	c.Deities = append([]string{}, c.Deities...)
	c.Slokas = append([]sloka.Sloka{}, c.Slokas...)
	return c
}
