package storage

import "station-homes/models"

// ListingSink is the interface any output backend for the filtered listing
// set must satisfy.
type ListingSink interface {
	Write(records []*models.ListingRecord) error
	Close() error
}
