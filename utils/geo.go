package utils

import (
	"github.com/tkrajina/gpxgo/gpx"

	"station-homes/models"
)

const metersPerMile = 1609.344

// MilesBetween returns the haversine distance in miles between two points.
func MilesBetween(lat1, lng1, lat2, lng2 float64) float64 {
	return gpx.Distance2D(lat1, lng1, lat2, lng2, true) / metersPerMile
}

// NearestStation returns the closest station to a listing and the distance in
// miles. Listings without coordinates get a zero value and ok=false.
func NearestStation(rec *models.ListingRecord, sts []models.Station) (models.Station, float64, bool) {
	if rec.Latitude == nil || rec.Longitude == nil || len(sts) == 0 {
		return models.Station{}, 0, false
	}

	best := sts[0]
	bestDist := MilesBetween(*rec.Latitude, *rec.Longitude, best.Latitude, best.Longitude)
	for _, s := range sts[1:] {
		d := MilesBetween(*rec.Latitude, *rec.Longitude, s.Latitude, s.Longitude)
		if d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best, bestDist, true
}
