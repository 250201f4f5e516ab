package services

import (
	"context"
	"time"

	"station-homes/models"
	"station-homes/utils"
)

// FetchParams are the shared parameters for every station query in a run.
type FetchParams struct {
	RadiusMiles float64
	MaxPrice    float64
	Status      string
	Limit       int
}

// ListingSource abstracts the external listings API. Implementations return
// an error on transport failure; the merger degrades that to zero listings.
type ListingSource interface {
	SearchNearby(ctx context.Context, lat, lng float64, params FetchParams) ([]*models.ListingRecord, error)
}

// Merger combines one zip code's per-station query results into a single
// deduplicated batch.
type Merger struct {
	source ListingSource
	logger *utils.Logger
}

// NewMerger creates a Merger backed by the given listing source.
func NewMerger(source ListingSource, logger *utils.Logger) *Merger {
	return &Merger{source: source, logger: logger}
}

// MergeZip queries the listing source once per station, sequentially, and
// accumulates the results with first-seen identity-key deduplication. A
// failed station query is logged and contributes zero listings; it never
// fails the batch.
func (m *Merger) MergeZip(ctx context.Context, zip string, sts []models.Station, params FetchParams) *models.PostalCodeBatch {
	seen := utils.NewKeySet()
	var records []*models.ListingRecord

	for _, st := range sts {
		results, err := m.source.SearchNearby(ctx, st.Latitude, st.Longitude, params)
		if err != nil {
			m.logger.Warn("[merger] Zip %s station %q: %v (treating as zero listings)",
				zip, st.Name, err)
			continue
		}

		added := 0
		for _, rec := range results {
			if seen.Add(rec.IdentityKey()) {
				records = append(records, rec)
				added++
			}
		}
		m.logger.Debug("[merger] Zip %s station %q: %d listings, %d new",
			zip, st.Name, len(results), added)
	}

	m.logger.Info("[merger] Zip %s: %d unique listings from %d stations",
		zip, len(records), len(sts))

	return &models.PostalCodeBatch{
		ZipCode:   zip,
		Stations:  sts,
		Records:   records,
		FetchedAt: time.Now(),
	}
}
