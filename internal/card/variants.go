package card

// VariantMap maps a card identifier to its variant identifiers in response order
type VariantMap map[string][]string

// ResolveVariants groups variants by owning card. Variants with an empty owner
// are dropped. Order and duplicates are preserved.
func ResolveVariants(variants []ArtVariant) VariantMap {
	m := make(VariantMap)
	for _, v := range variants {
		owner := v.Owner()
		if owner == "" {
			continue
		}
		m[owner] = append(m[owner], v.ID)
	}
	return m
}

// Chain returns the download sequence for a card: the card's own id as the
// base artwork followed by its variants. A card without variants yields just
// the base artwork.
func (m VariantMap) Chain(cardID string) []string {
	variants := m[cardID]
	chain := make([]string, 0, len(variants)+1)
	chain = append(chain, cardID)
	return append(chain, variants...)
}

// Count returns the number of variants for a card
func (m VariantMap) Count(cardID string) int {
	return len(m[cardID])
}
