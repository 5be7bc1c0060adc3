package store

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gorm.io/datatypes"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

type collectionRow struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Deities   datatypes.JSON `gorm:"not null"`
	Scripture string         `gorm:"not null;index"`
	Title     string         `gorm:"not null"`
	Slokas    []slokaRow     `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

func (collectionRow) TableName() string { return "collections" }

type slokaRow struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	CollectionID    int64          `gorm:"not null;index"`
	OriginalText    string         `gorm:"not null"`
	Transliteration datatypes.JSON `gorm:"not null"`
	Meaning         datatypes.JSON `gorm:"not null"`
	AudioURL        string         `gorm:"column:audio_url"`
}

func (slokaRow) TableName() string { return "slokas" }

func (r *collectionRow) toDomain() (sloka.Collection, error) {
	c := sloka.Collection{
		ID:        r.ID,
		Scripture: r.Scripture,
		Title:     r.Title,
		Deities:   []string{},
		Slokas:    make([]sloka.Sloka, 0, len(r.Slokas)),
	}
	if len(r.Deities) > 0 {
		if err := json.Unmarshal(r.Deities, &c.Deities); err != nil {
			return c, errors.Wrapf(err, "collection %d: invalid deities", r.ID)
		}
	}
	for i := range r.Slokas {
		s, err := r.Slokas[i].toDomain()
		if err != nil {
			return c, err
		}
		c.Slokas = append(c.Slokas, s)
	}
	return c, nil
}

func (r *slokaRow) toDomain() (sloka.Sloka, error) {
	s := sloka.Sloka{
		ID:           r.ID,
		OriginalText: r.OriginalText,
		AudioURL:     r.AudioURL,
	}
	if len(r.Transliteration) > 0 {
		if err := json.Unmarshal(r.Transliteration, &s.Transliteration); err != nil {
			return s, errors.Wrapf(err, "sloka %d: invalid transliteration", r.ID)
		}
	}
	if len(r.Meaning) > 0 {
		if err := json.Unmarshal(r.Meaning, &s.Meaning); err != nil {
			return s, errors.Wrapf(err, "sloka %d: invalid meaning", r.ID)
		}
	}
	return s, nil
}

func newCollectionRow(c *sloka.Collection) (*collectionRow, error) {
	deities := c.Deities
	if deities == nil {
		deities = []string{}
	}
	d, err := json.Marshal(deities)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode deities")
	}
	return &collectionRow{
		Deities:   datatypes.JSON(d),
		Scripture: c.Scripture,
		Title:     c.Title,
	}, nil
}

func newSlokaRow(collectionID int64, s *sloka.Sloka) (*slokaRow, error) {
	tr, err := json.Marshal(s.Transliteration)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transliteration")
	}
	m, err := json.Marshal(s.Meaning)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode meaning")
	}
	return &slokaRow{
		CollectionID:    collectionID,
		OriginalText:    s.OriginalText,
		Transliteration: datatypes.JSON(tr),
		Meaning:         datatypes.JSON(m),
		AudioURL:        s.AudioURL,
	}, nil
}
