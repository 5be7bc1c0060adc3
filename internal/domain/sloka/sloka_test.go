package sloka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCollections() []Collection {
	return []Collection{
		{
			ID:        1,
			Deities:   []string{"Ganesha"},
			Scripture: "Stotra",
			Title:     "Ganesha Pancharatnam",
			Slokas: []Sloka{
				{ID: 10, OriginalText: "mudakaratta modakam", AudioURL: "https://cdn.example/g1.mp3"},
				{ID: 11, OriginalText: "natetarati bhikaram", AudioURL: "https://cdn.example/g2.mp3"},
			},
		},
		{
			ID:        2,
			Deities:   []string{"Shiva", "Parvati"},
			Scripture: "Bhagavad Gita",
			Title:     "Ardhanarishvara Stotram",
			Slokas: []Sloka{
				{ID: 20, OriginalText: "champeya gaurardha", AudioURL: "https://cdn.example/s1.mp3"},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten(testCollections())

	require.Len(t, flat, 3)
	assert.Equal(t, int64(10), flat[0].ID)
	assert.Equal(t, "Ganesha Pancharatnam", flat[0].Title)
	assert.Equal(t, int64(1), flat[0].CollectionID)
	assert.Equal(t, []string{"Shiva", "Parvati"}, flat[2].Deities)
}

func TestFilterByDeity(t *testing.T) {
	flat := Flatten(testCollections())

	tests := []struct {
		name     string
		deity    string
		expected []int64
	}{
		{name: "exact case", deity: "Ganesha", expected: []int64{10, 11}},
		{name: "lower case", deity: "parvati", expected: []int64{20}},
		{name: "unknown deity", deity: "Vishnu", expected: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterByDeity(flat, tt.deity)
			ids := make([]int64, 0, len(result))
			for _, s := range result {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFilterByScripture(t *testing.T) {
	flat := Flatten(testCollections())

	assert.Len(t, FilterByScripture(flat, "stotra"), 2)
	assert.Len(t, FilterByScripture(flat, "bhagavad-gita"), 1)
	assert.Empty(t, FilterByScripture(flat, "upanishad"))
}

func TestFindByID(t *testing.T) {
	flat := Flatten(testCollections())

	s, ok := FindByID(flat, 11)
	require.True(t, ok)
	assert.Equal(t, "natetarati bhikaram", s.OriginalText)

	_, ok = FindByID(flat, 99)
	assert.False(t, ok)
}

func TestMeaning_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Meaning
	}{
		{
			name:     "object form",
			input:    `{"en":"You alone are my mother","hi":"आप ही मेरी माता","te":"మీరు మాత్రమే"}`,
			expected: Meaning{En: "You alone are my mother", Hi: "आप ही मेरी माता", Te: "మీరు మాత్రమే"},
		},
		{
			name:     "legacy string form",
			input:    `"Salutations to Ganesha"`,
			expected: Meaning{En: "Salutations to Ganesha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Meaning
			require.NoError(t, json.Unmarshal([]byte(tt.input), &m))
			assert.Equal(t, tt.expected, m)
		})
	}

	var m Meaning
	assert.Error(t, json.Unmarshal([]byte(`42`), &m))
}
