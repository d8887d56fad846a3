package card

import "strings"

// Card represents a released card from the remote card list
type Card struct {
	ID     string `json:"defId"`  // Stable identifier (e.g., Groot, HighEvolutionary)
	Name   string `json:"name"`   // Display name, informational only
	Series int    `json:"series"` // Release series; <= 0 marks test or unreleased data
}

// Released reports whether the card belongs to a real release series
func (c Card) Released() bool {
	return c.Series > 0
}

// ArtVariant represents an alternate artwork for a card
type ArtVariant struct {
	ID     string `json:"defId"`  // <cardId>_<suffix>
	Source int    `json:"source"` // 0 marks test data
}

// Released reports whether the variant comes from a real source
func (v ArtVariant) Released() bool {
	return v.Source != 0
}

// Owner returns the card the variant belongs to, the part before the first '_'.
// An identifier without '_' owns itself.
func (v ArtVariant) Owner() string {
	owner, _, _ := strings.Cut(v.ID, "_")
	return owner
}

// IDs returns the identifiers of the given cards, in order
func IDs(cards []Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// Contains reports whether id is one of the given card identifiers
func Contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
