package services

import (
	"station-homes/models"
	"station-homes/utils"
)

// Deduplicator collapses listings that appear in more than one zip code's
// search radius.
type Deduplicator struct {
	logger *utils.Logger
}

// NewDeduplicator creates a Deduplicator with the given logger.
func NewDeduplicator(logger *utils.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Merge concatenates all batches' records in the order given and removes
// identity-key duplicates, keeping the first occurrence. Returns the kept
// records and the number of duplicates removed.
func (d *Deduplicator) Merge(batches []*models.PostalCodeBatch) ([]*models.ListingRecord, int) {
	seen := utils.NewKeySet()
	var records []*models.ListingRecord
	removed := 0

	for _, batch := range batches {
		for _, rec := range batch.Records {
			if seen.Add(rec.IdentityKey()) {
				records = append(records, rec)
			} else {
				removed++
			}
		}
	}

	d.logger.Info("[dedup] %d batches → %d unique listings (%d cross-zip duplicates removed)",
		len(batches), len(records), removed)
	return records, removed
}
