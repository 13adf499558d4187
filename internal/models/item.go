package models

// MaxItems caps a snapshot's item list.
const MaxItems = 10

// CanonicalItem is the persisted, source-agnostic ranked entry.
// Every field is always serialized; unknown values are empty strings.
type CanonicalItem struct {
	Rank     int    `json:"rank"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Traffic  string `json:"traffic"`
	Snippet  string `json:"snippet"`
	Icon     string `json:"icon"`
	Category string `json:"category"`
}
