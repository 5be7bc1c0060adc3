package store

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := Open(Config{Driver: "sqlite", DSN: dsn, AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCollection(title string) *sloka.Collection {
	return &sloka.Collection{
		Deities:   []string{"Shiva", "Parvati"},
		Scripture: "Stotra",
		Title:     title,
		Slokas: []sloka.Sloka{
			{
				OriginalText:    "ॐ नमः शिवाय",
				Transliteration: sloka.Transliteration{En: "om namah shivaya", Te: "ఓం నమః శివాయ"},
				Meaning:         sloka.Meaning{En: "Salutations to Shiva", Hi: "शिव को नमस्कार"},
				AudioURL:        "https://cdn.example/1.mp3",
			},
			{
				OriginalText: "second",
				Meaning:      sloka.Meaning{En: "second meaning"},
				AudioURL:     "https://cdn.example/2.mp3",
			},
		},
	}
}

func TestStore_InsertAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testCollection("Shiva Panchakshara")
	require.NoError(t, s.InsertCollection(ctx, c))
	require.NotZero(t, c.ID)
	require.NotZero(t, c.Slokas[0].ID)
	require.NotZero(t, c.Slokas[1].ID)

	got, err := s.Collection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, []string{"Shiva", "Parvati"}, got.Deities)
	require.Len(t, got.Slokas, 2)
	assert.Equal(t, c.Slokas[0], got.Slokas[0])
	assert.Equal(t, c.Slokas[1].ID, got.Slokas[1].ID)

	v, collectionID, err := s.Sloka(ctx, c.Slokas[1].ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, collectionID)
	assert.Equal(t, "second meaning", v.Meaning.En)
}

func TestStore_Collections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	all, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	first := testCollection("First")
	second := testCollection("Second")
	second.Slokas = nil
	require.NoError(t, s.InsertCollection(ctx, first))
	require.NoError(t, s.InsertCollection(ctx, second))

	all, err = s.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "First", all[0].Title)
	assert.Len(t, all[0].Slokas, 2)
	assert.Equal(t, "Second", all[1].Title)
	assert.Empty(t, all[1].Slokas)
}

func TestStore_InsertRollbackLeavesIDsUnset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.db.Callback().Create().Before("gorm:create").Register("test:fail_second_sloka", func(db *gorm.DB) {
		if row, ok := db.Statement.Dest.(*slokaRow); ok && row.OriginalText == "second" {
			_ = db.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	c := testCollection("Rolled Back")
	require.Error(t, s.InsertCollection(ctx, c))

	assert.Zero(t, c.ID)
	for _, v := range c.Slokas {
		assert.Zero(t, v.ID)
	}

	all, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Collection(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Sloka(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LegacyStringMeaning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testCollection("Legacy")
	c.Slokas = c.Slokas[:1]
	require.NoError(t, s.InsertCollection(ctx, c))

	err := s.db.Model(&slokaRow{}).
		Where("id = ?", c.Slokas[0].ID).
		Update("meaning", `"plain english meaning"`).Error
	require.NoError(t, err)

	v, _, err := s.Sloka(ctx, c.Slokas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sloka.Meaning{En: "plain english meaning"}, v.Meaning)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
