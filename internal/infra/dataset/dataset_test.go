package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Bundled(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)

	all, err := d.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, "Ganesha Vandana", all[0].Title)
	assert.Equal(t, int64(2), all[1].ID)
	assert.Equal(t, "Bhagavad Gita", all[1].Scripture)

	// Legacy plain-string meaning
	assert.NotEmpty(t, all[0].Slokas[1].Meaning.En)
	assert.Empty(t, all[0].Slokas[1].Meaning.Hi)

	for _, c := range all {
		for _, s := range c.Slokas {
			assert.NotEmpty(t, s.AudioURL, "sloka %d", s.ID)
			assert.False(t, s.Transliteration.IsEmpty(), "sloka %d", s.ID)
		}
	}
}

func TestLoad_File(t *testing.T) {
	data := `[
  {"id": 7, "deities": ["Shiva"], "scripture": "Stotra", "title": "Lingashtakam",
   "slokas": [{"id": 70, "originalText": "x", "audioUrl": "https://cdn.example/70.mp3"}]},
  {"scripture": "Stotra", "title": "No Deities", "slokas": []}
]`
	path := filepath.Join(t.TempDir(), "slokas.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	d, err := Load(path)
	require.NoError(t, err)

	ctx := context.Background()
	c, err := d.Collection(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Lingashtakam", c.Title)

	c, err = d.Collection(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "No Deities", c.Title)
	assert.NotNil(t, c.Deities)

	s, collectionID, err := d.Sloka(ctx, 70)
	require.NoError(t, err)
	assert.Equal(t, int64(7), collectionID)
	assert.Equal(t, "https://cdn.example/70.mp3", s.AudioURL)
}

func TestDataset_NotFound(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)

	_, err = d.Collection(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = d.Sloka(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDataset_ReturnsCopies(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	ctx := context.Background()

	c, err := d.Collection(ctx, 1)
	require.NoError(t, err)
	c.Slokas[0].AudioURL = "mutated"
	c.Deities[0] = "mutated"

	again, err := d.Collection(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Slokas[0].AudioURL)
	assert.NotEqual(t, "mutated", again.Deities[0])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}
