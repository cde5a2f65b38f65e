// Package model holds the domain types shared across the resolve pipeline.
package model

import (
	"encoding/json"

	"github.com/trailpost/trailpost/pkg/geo"
	"github.com/trailpost/trailpost/pkg/places"
)

// UnknownLabel is the sentinel label for a point no source could name.
const UnknownLabel = "#?"

// Location is the outcome of resolving a point: the best label, the position
// it was resolved against and the ranked alternatives (the best label is
// alternatives[0] whenever any alternative exists).
type Location struct {
	Label        string
	Centroid     geo.Point
	Alternatives []places.Candidate
}

// Distance returns the distance in meters between the location's centroid
// and the given position.
func (l Location) Distance(position geo.Point) float64 {
	return l.Centroid.Distance(position)
}

// locationJSON is the wire form of Location.
type locationJSON struct {
	Label    string             `json:"label"`
	Position geo.Point          `json:"position"`
	Other    []places.Candidate `json:"other"`
}

// MarshalJSON implements json.Marshaler.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{
		Label:    l.Label,
		Position: l.Centroid,
		Other:    l.Alternatives,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Only label and position are
// restored; alternatives always come back empty, whatever the source
// document carried. Downstream consumers depend on this shape, so it is
// kept even though it breaks round-trip fidelity.
func (l *Location) UnmarshalJSON(data []byte) error {
	var wire locationJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	l.Label = wire.Label
	l.Centroid = wire.Position
	l.Alternatives = []places.Candidate{}
	return nil
}
