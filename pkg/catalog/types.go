package catalog

// PageResult is one fetched page of the catalog. It is replaced, never
// mutated, when a newer page or its enrichment arrives.
type PageResult struct {
	Count int           `json:"count"`
	Items []ItemSummary `json:"items"`
}

// ItemSummary is a catalog entry. Image is nil until enrichment succeeds
// and "" when the detail record has no sprite.
type ItemSummary struct {
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Image *string `json:"image,omitempty"`
}

// ID is the identifier taken from the reference URL.
func (i ItemSummary) ID() string {
	return idFromURL(i.URL)
}

// DetailRecord is the flattened detail of one pokemon.
type DetailRecord struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Height         int       `json:"height"`
	Weight         int       `json:"weight"`
	BaseExperience int       `json:"base_experience"`
	SpriteURL      string    `json:"sprite_url"`
	Types          []string  `json:"types"`
	Abilities      []string  `json:"abilities"`
	Stats          []Stat    `json:"stats"`
	Moves          []MoveRef `json:"moves"`
}

// Stat is a base stat such as "hp" or "speed".
type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
}

// MoveRef points at a move sub-resource.
type MoveRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MoveSummary is a resolved move. Power and Accuracy are 0 when unknown.
type MoveSummary struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Power    int    `json:"power"`
	Accuracy int    `json:"accuracy"`
}

// UnknownMoveType is used when a move record carries no type.
const UnknownMoveType = "unknown"
