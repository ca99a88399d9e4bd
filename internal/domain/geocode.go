package domain

import "context"

// GeocodingResult is a place lookup answer for map navigation. A zero-value
// result (no coordinates, empty DisplayName) means the place was not found.
type GeocodingResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Found reports whether the lookup produced a usable location.
func (r GeocodingResult) Found() bool {
	return r.DisplayName != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder turns a free-text place query into coordinates so the map view
// can jump to a searched location. Implementations are external services;
// a nil Geocoder simply disables the search feature.
type Geocoder interface {
	Search(ctx context.Context, query string) (GeocodingResult, error)
}
