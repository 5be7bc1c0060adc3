// Package store provides the relational content store for collections and verses.
package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/osa030/slokabox/internal/domain/sloka"
	"github.com/osa030/slokabox/internal/infra/logger"
)

// ErrNotFound is returned when a collection or verse does not exist.
var ErrNotFound = sloka.ErrNotFound

// Config represents store configuration.
type Config struct {
	Driver      string // "postgres" or "sqlite"
	DSN         string
	AutoMigrate bool
}

// Store reads and writes collections through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.Newf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(time.Second),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", cfg.Driver)
	}

	s := New(db)
	if cfg.AutoMigrate {
		if err := s.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}

	zlog.Info().Msgf("store: connected: driver=%s auto_migrate=%t", cfg.Driver, cfg.AutoMigrate)
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the collections and slokas tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&collectionRow{}, &slokaRow{}); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}

// Name identifies the store as a catalog source.
func (s *Store) Name() string {
	return "store"
}

// Collections returns all collections with their verses, ordered by ID.
func (s *Store) Collections(ctx context.Context) ([]sloka.Collection, error) {
	var rows []collectionRow
	err := s.db.WithContext(ctx).
		Preload("Slokas", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query collections")
	}

	out := make([]sloka.Collection, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Collection returns one collection with its verses.
func (s *Store) Collection(ctx context.Context, id int64) (*sloka.Collection, error) {
	var row collectionRow
	err := s.db.WithContext(ctx).
		Preload("Slokas", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "collection %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query collection %d", id)
	}

	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Sloka returns one verse and the ID of its collection.
func (s *Store) Sloka(ctx context.Context, id int64) (*sloka.Sloka, int64, error) {
	var row slokaRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, errors.Wrapf(ErrNotFound, "sloka %d", id)
	}
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to query sloka %d", id)
	}

	v, err := row.toDomain()
	if err != nil {
		return nil, 0, err
	}
	return &v, row.CollectionID, nil
}

// InsertCollection stores c and its verses in one transaction. The
// generated IDs are written back to c only once the transaction commits.
func (s *Store) InsertCollection(ctx context.Context, c *sloka.Collection) error {
	var (
		collectionID int64
		slokaIDs     = make([]int64, len(c.Slokas))
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := newCollectionRow(c)
		if err != nil {
			return err
		}
		if err := tx.Omit("Slokas").Create(row).Error; err != nil {
			return errors.Wrap(err, "failed to insert collection")
		}

		for i := range c.Slokas {
			sr, err := newSlokaRow(row.ID, &c.Slokas[i])
			if err != nil {
				return err
			}
			if err := tx.Create(sr).Error; err != nil {
				return errors.Wrapf(err, "failed to insert sloka %d", i+1)
			}
			slokaIDs[i] = sr.ID
		}

		collectionID = row.ID
		return nil
	})
	if err != nil {
		return err
	}

	c.ID = collectionID
	for i := range c.Slokas {
		c.Slokas[i].ID = slokaIDs[i]
	}
	zlog.Info().Msgf("store: inserted collection: id=%d title=%s slokas=%d", c.ID, c.Title, len(c.Slokas))
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get connection pool")
	}
	return sqlDB.Close()
}
