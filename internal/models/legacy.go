package models

import "sort"

// LegacyRow is a single-language story row from the translation-link schema
// generation, before the bilingual columns existed.
type LegacyRow struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"-"`
	Excerpt       string `json:"excerpt"`
	Language      string `json:"language"`
	TranslationID *int64 `json:"translation_id,omitempty"`
}

// Lang normalizes the row language. Anything that is not "fr" was written
// under the 'en' column default.
func (r LegacyRow) Lang() string {
	if r.Language == "fr" {
		return "fr"
	}
	return "en"
}

// LegacyStory is one merge unit of the bilingual migration: either a
// Monolingual row or a LinkedPair of French and English rows.
type LegacyStory interface {
	// AnchorID is the id the merged bilingual row keeps.
	AnchorID() int64
	legacyStory()
}

// Monolingual is a row with no usable translation link
type Monolingual struct {
	Lang string    `json:"lang"`
	Row  LegacyRow `json:"row"`
}

// LinkedPair is a French anchor row merged with its English sibling
type LinkedPair struct {
	FR LegacyRow `json:"fr"`
	EN LegacyRow `json:"en"`
}

func (m Monolingual) AnchorID() int64 { return m.Row.ID }
func (p LinkedPair) AnchorID() int64  { return p.FR.ID }

func (Monolingual) legacyStory() {}
func (LinkedPair) legacyStory()  {}

// PairLegacy groups translation-link rows into merge units, the same way the
// bilingual migration does in SQL:
//
//   - a link counts in either direction (fr -> en or en -> fr)
//   - self links and links between rows of the same language are ignored
//   - each French row takes its lowest linked English id
//   - an English row claimed by several French rows goes to the lowest French id
//
// Results are ordered by anchor id.
func PairLegacy(rows []LegacyRow) []LegacyStory {
	byID := make(map[int64]LegacyRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	// candidate English sibling per French row
	candidate := make(map[int64]int64)
	consider := func(frID, enID int64) {
		if frID == enID {
			return
		}
		fr, okFr := byID[frID]
		en, okEn := byID[enID]
		if !okFr || !okEn || fr.Lang() != "fr" || en.Lang() != "en" {
			return
		}
		if cur, ok := candidate[frID]; !ok || enID < cur {
			candidate[frID] = enID
		}
	}
	for _, r := range rows {
		if r.TranslationID == nil {
			continue
		}
		if r.Lang() == "fr" {
			consider(r.ID, *r.TranslationID)
		} else {
			consider(*r.TranslationID, r.ID)
		}
	}

	// resolve English rows claimed more than once
	owner := make(map[int64]int64)
	for frID, enID := range candidate {
		if cur, ok := owner[enID]; !ok || frID < cur {
			owner[enID] = frID
		}
	}

	paired := make(map[int64]bool, len(owner)*2)
	units := make([]LegacyStory, 0, len(rows))
	for enID, frID := range owner {
		paired[enID], paired[frID] = true, true
		units = append(units, LinkedPair{FR: byID[frID], EN: byID[enID]})
	}
	for _, r := range rows {
		if !paired[r.ID] {
			units = append(units, Monolingual{Lang: r.Lang(), Row: r})
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].AnchorID() < units[j].AnchorID() })
	return units
}
