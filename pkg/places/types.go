// Package places turns external place providers (Google Places, Foursquare)
// into ranked place candidates, with a proximity-keyed response cache per
// provider.
package places

// SuggestionType marks the provenance of a candidate.
type SuggestionType string

// Candidate provenance values.
const (
	SuggestionKB         SuggestionType = "KB"
	SuggestionGoogle     SuggestionType = "GOOGLE"
	SuggestionFoursquare SuggestionType = "FOURSQUARE"
)

// Candidate is a single labeled place suggestion with its distance to the
// query point, in meters.
type Candidate struct {
	Label          string         `json:"label"`
	Distance       float64        `json:"distance"`
	Types          []string       `json:"types,omitempty"`
	SuggestionType SuggestionType `json:"suggestion_type"`
}
