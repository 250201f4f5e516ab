package services

import (
	"fmt"
	"sort"
	"strings"

	"station-homes/models"
	"station-homes/utils"
)

// The zip-code label used for records the provider returned without one.
const unknownZip = "Unknown"

// Aggregator computes the per-zip inventory statistics over the filtered set.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate groups the records by zip code and computes count, mean and
// median price, square footage, and price per square foot for each group.
// Non-positive and missing values are excluded from the statistics, never
// from the count. Rows are sorted by descending count, ties broken by
// ascending zip code. stationNames, when non-nil, labels each row with the
// stations serving its zip code.
func (a *Aggregator) Aggregate(records []*models.ListingRecord, stationNames func(zip string) string) []models.InventoryRow {
	groups := make(map[string][]*models.ListingRecord)
	for _, r := range records {
		zip := r.ZipCode
		if zip == "" {
			zip = unknownZip
		}
		groups[zip] = append(groups[zip], r)
	}

	rows := make([]models.InventoryRow, 0, len(groups))
	for zip, recs := range groups {
		var prices, sqfts, perSqft []float64
		for _, r := range recs {
			if r.Price > 0 {
				prices = append(prices, r.Price)
			}
			if r.SquareFootage != nil && *r.SquareFootage > 0 {
				sqfts = append(sqfts, *r.SquareFootage)
				if r.Price > 0 {
					perSqft = append(perSqft, r.Price / *r.SquareFootage)
				}
			}
		}

		names := ""
		if stationNames != nil && zip != unknownZip {
			names = stationNames(zip)
		}

		rows = append(rows, models.InventoryRow{
			ZipCode:            zip,
			StationNames:       names,
			Count:              len(recs),
			AvgPrice:           mean(prices),
			MedianPrice:        median(prices),
			AvgSqft:            mean(sqfts),
			MedianSqft:         median(sqfts),
			AvgPricePerSqft:    mean(perSqft),
			MedianPricePerSqft: median(perSqft),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].ZipCode < rows[j].ZipCode
	})

	a.logger.Info("[inventory] Aggregated %d listings into %d zip codes", len(records), len(rows))
	return rows
}

// TopN returns the first n rows (the n largest groups by count).
func TopN(rows []models.InventoryRow, n int) []models.InventoryRow {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// Print writes the inventory summary to stdout.
func (a *Aggregator) Print(rows []models.InventoryRow, total int) {
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n=== HOMES FOR SALE REPORT ===\n")
	fmt.Printf("Total homes meeting criteria: %d\n", total)
	fmt.Printf("\n=== TOP ZIP CODES ===\n")
	fmt.Printf("%s\n", thin)
	for _, row := range TopN(rows, 5) {
		fmt.Printf("Zip %s:\n", row.ZipCode)
		fmt.Printf("  Total listings: %d\n", row.Count)
		fmt.Printf("  Average price:  $%.0f\n", row.AvgPrice)
		fmt.Printf("  Median price:   $%.0f\n", row.MedianPrice)
		if row.AvgSqft > 0 {
			fmt.Printf("  Average size:   %.0f sq ft\n", row.AvgSqft)
		}
	}
	fmt.Printf("%s\n\n", thin)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
