// Package sloka provides the verse and collection domain entities.
package sloka

import (
	"encoding/json"
	"strings"
)

// Transliteration holds the romanized and Telugu renderings of a verse.
type Transliteration struct {
	En string `json:"en" yaml:"en"`
	Te string `json:"te" yaml:"te"`
}

// Meaning holds translations of a verse.
type Meaning struct {
	En string `json:"en" yaml:"en"`
	Hi string `json:"hi" yaml:"hi"`
	Te string `json:"te" yaml:"te"`
}

// UnmarshalJSON accepts both the object form and the older plain string
// form, which is treated as the English meaning.
func (m *Meaning) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Meaning{En: s}
		return nil
	}
	type plain Meaning
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Meaning(p)
	return nil
}

// IsEmpty reports whether no translation is set.
func (m Meaning) IsEmpty() bool {
	return m.En == "" && m.Hi == "" && m.Te == ""
}

// IsEmpty reports whether no rendering is set.
func (t Transliteration) IsEmpty() bool {
	return t.En == "" && t.Te == ""
}

// Sloka represents a single verse.
type Sloka struct {
	ID              int64           `json:"id"`
	OriginalText    string          `json:"originalText"`
	Transliteration Transliteration `json:"transliteration"`
	Meaning         Meaning         `json:"meaning"`
	AudioURL        string          `json:"audioUrl"`
}

// FlattenedSloka is a verse carrying its collection's grouping fields.
type FlattenedSloka struct {
	Sloka
	CollectionID int64    `json:"collectionId"`
	Deities      []string `json:"deities"`
	Scripture    string   `json:"scripture"`
	Title        string   `json:"title"`
}

// HasDeity reports whether the verse is dedicated to the given deity.
// Comparison is case-insensitive.
func (f *FlattenedSloka) HasDeity(deity string) bool {
	for _, d := range f.Deities {
		if strings.EqualFold(d, deity) {
			return true
		}
	}
	return false
}

// Flatten expands collections into verses in collection order.
func Flatten(collections []Collection) []FlattenedSloka {
	var out []FlattenedSloka
	for _, c := range collections {
		for _, s := range c.Slokas {
			out = append(out, FlattenedSloka{
				Sloka:        s,
				CollectionID: c.ID,
				Deities:      c.Deities,
				Scripture:    c.Scripture,
				Title:        c.Title,
			})
		}
	}
	return out
}

// FilterByDeity returns verses dedicated to deity.
func FilterByDeity(slokas []FlattenedSloka, deity string) []FlattenedSloka {
	out := make([]FlattenedSloka, 0)
	for i := range slokas {
		if slokas[i].HasDeity(deity) {
			out = append(out, slokas[i])
		}
	}
	return out
}

// FilterByScripture returns verses of the given scripture type.
// Hyphens in scripture are read as spaces so URL slugs match.
func FilterByScripture(slokas []FlattenedSloka, scripture string) []FlattenedSloka {
	want := strings.ReplaceAll(scripture, "-", " ")
	out := make([]FlattenedSloka, 0)
	for i := range slokas {
		if strings.EqualFold(slokas[i].Scripture, want) || strings.EqualFold(slokas[i].Scripture, scripture) {
			out = append(out, slokas[i])
		}
	}
	return out
}

// FindByID returns the verse with the given ID.
func FindByID(slokas []FlattenedSloka, id int64) (*FlattenedSloka, bool) {
	for i := range slokas {
		if slokas[i].ID == id {
			return &slokas[i], true
		}
	}
	return nil, false
}
