package sloka

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// VerseRef is the audio-bearing reference the book view plays.
// Sequence order is playback order.
type VerseRef struct {
	ID       string
	AudioURL string
	Title    string
}

// Collection is a named group of verses sharing a scripture and deities.
type Collection struct {
	ID        int64    `json:"id"`
	Deities   []string `json:"deities"`
	Scripture string   `json:"scripture"`
	Title     string   `json:"title"`
	Slokas    []Sloka  `json:"slokas"`
}

// Slug returns the URL slug of the collection title.
func (c *Collection) Slug() string {
	return Slugify(c.Title)
}

// SlokaIDs returns all verse IDs in order.
func (c *Collection) SlokaIDs() []int64 {
	ids := make([]int64, len(c.Slokas))
	for i, s := range c.Slokas {
		ids[i] = s.ID
	}
	return ids
}

// VerseRefs builds the playback sequence for the collection.
// Verses without audio are skipped.
func (c *Collection) VerseRefs() []VerseRef {
	refs := make([]VerseRef, 0, len(c.Slokas))
	for i, s := range c.Slokas {
		if s.AudioURL == "" {
			continue
		}
		refs = append(refs, VerseRef{
			ID:       strconv.FormatInt(s.ID, 10),
			AudioURL: s.AudioURL,
			Title:    c.Title + " " + strconv.Itoa(i+1),
		})
	}
	return refs
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of non-alphanumerics into a
// single hyphen and trims hyphens at both ends.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// FindBySlug returns the collection whose title slugifies to slug.
func FindBySlug(collections []Collection, slug string) (*Collection, bool) {
	for i := range collections {
		if collections[i].Slug() == slug {
			return &collections[i], true
		}
	}
	return nil, false
}

// Deities returns the distinct deity names across collections, sorted.
func Deities(collections []Collection) []string {
	return distinct(collections, func(c Collection) []string { return c.Deities })
}

// Scriptures returns the distinct scripture types across collections, sorted.
func Scriptures(collections []Collection) []string {
	return distinct(collections, func(c Collection) []string { return []string{c.Scripture} })
}

func distinct(collections []Collection, fn func(Collection) []string) []string {
	seen := make(map[string]string)
	for _, c := range collections {
		for _, v := range fn(c) {
			if v == "" {
				continue
			}
			key := strings.ToLower(v)
			if _, ok := seen[key]; !ok {
				seen[key] = v
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
