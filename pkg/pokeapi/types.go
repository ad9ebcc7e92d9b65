package pokeapi

// NamedResource is the {name, url} reference used throughout the API.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListResponse is the body of GET /pokemon?offset=&limit=.
type ListResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// Pokemon is the subset of GET /pokemon/{id or name} this module reads.
type Pokemon struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience int           `json:"base_experience"`
	Sprites        Sprites       `json:"sprites"`
	Types          []TypeSlot    `json:"types"`
	Abilities      []AbilitySlot `json:"abilities"`
	Moves          []MoveSlot    `json:"moves"`
	Stats          []StatSlot    `json:"stats"`
}

// Sprites holds image URLs; any of them may be null.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
}

type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type AbilitySlot struct {
	Slot     int           `json:"slot"`
	IsHidden bool          `json:"is_hidden"`
	Ability  NamedResource `json:"ability"`
}

type MoveSlot struct {
	Move NamedResource `json:"move"`
}

type StatSlot struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

// Move is the subset of GET /move/{id or name} this module reads. Power and
// Accuracy are null for status moves.
type Move struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Type     *NamedResource `json:"type"`
	Power    *int           `json:"power"`
	Accuracy *int           `json:"accuracy"`
	PP       *int           `json:"pp"`
}
