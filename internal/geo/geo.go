// Package geo holds coordinate validation and straight-line geometry.
package geo

import (
	"fmt"
	"math"

	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/validation"
)

const earthRadiusKm = 6371.0

// LatLng is a WGS84 coordinate in decimal degrees
type LatLng struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Validate rejects out-of-range or non-finite coordinates
func (p LatLng) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return common.NewBadRequestError("invalid coordinates", fmt.Errorf("non-finite coordinate %v", p))
	}
	if err := validation.ValidateStruct(p); err != nil {
		return common.NewBadRequestError("invalid coordinates", err)
	}
	return nil
}

// String formats the point as "lat,lng" for routing APIs
func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// HaversineKm returns the great-circle distance between a and b in kilometres
func HaversineKm(a, b LatLng) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
