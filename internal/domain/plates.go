package domain

import "context"

// Coordinate is a WGS-84 longitude/latitude pair in GeoJSON order.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// PlateBoundary is one named tectonic plate boundary drawn as one or more
// polylines on the map overlay.
type PlateBoundary struct {
	Name  string         `json:"name,omitempty"`
	Lines [][]Coordinate `json:"lines"`
}

// PlateSource provides tectonic plate boundaries for the map overlay.
type PlateSource interface {
	PlateBoundaries(ctx context.Context) ([]PlateBoundary, error)
}
