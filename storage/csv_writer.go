package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"station-homes/models"
	"station-homes/utils"
)

var listingHeader = []string{
	"id", "formattedAddress", "addressLine1", "city", "state", "zipCode",
	"latitude", "longitude", "propertyType", "bedrooms", "bathrooms",
	"squareFootage", "lotSize", "yearBuilt", "price", "status",
	"listingType", "listedDate", "daysOnMarket", "mlsNumber",
	"listingAgent_name", "listingAgent_phone", "county",
	"listingUrl", "nearestStation", "stationDistanceMiles",
}

// ListingCSVWriter writes the eligibility-filtered listings to a CSV file,
// flattened for the map layer. It is safe for concurrent use.
type ListingCSVWriter struct {
	mu       sync.Mutex
	file     *os.File
	writer   *csv.Writer
	stations []models.Station
}

// NewListingCSVWriter creates (or truncates) the CSV file at the given path
// and writes the header row. The station list is used to annotate each row
// with its nearest station. Intermediate directories are created
// automatically.
func NewListingCSVWriter(path string, stations []models.Station) (*ListingCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(listingHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &ListingCSVWriter{file: f, writer: w, stations: stations}, nil
}

// Write appends one row per listing.
func (c *ListingCSVWriter) Write(records []*models.ListingRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		agentName, agentPhone := "", ""
		if r.ListingAgent != nil {
			agentName = r.ListingAgent.Name
			agentPhone = r.ListingAgent.Phone
		}

		nearestName, nearestDist := "", ""
		if station, miles, ok := utils.NearestStation(r, c.stations); ok {
			nearestName = station.Name
			nearestDist = strconv.FormatFloat(miles, 'f', 2, 64)
		}

		row := []string{
			r.ID,
			r.FormattedAddress,
			r.AddressLine1,
			r.City,
			r.State,
			r.ZipCode,
			fmtFloatPtr(r.Latitude),
			fmtFloatPtr(r.Longitude),
			r.PropertyType,
			fmtFloatPtr(r.Bedrooms),
			fmtFloatPtr(r.Bathrooms),
			fmtFloatPtr(r.SquareFootage),
			fmtFloatPtr(r.LotSize),
			fmtIntPtr(r.YearBuilt),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Status,
			r.ListingType,
			r.ListedDate,
			fmtIntPtr(r.DaysOnMarket),
			r.MLSNumber,
			agentName,
			agentPhone,
			r.County,
			MarketplaceURL(r.FormattedAddress),
			nearestName,
			nearestDist,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *ListingCSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// WriteInventoryCSV writes the per-zip inventory summary rows to path.
func WriteInventoryCSV(path string, rows []models.InventoryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"zip_code", "listings", "avg_price", "median_price",
		"avg_sqft", "median_sqft", "avg_price_per_sqft", "median_price_per_sqft",
		"stations",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.ZipCode,
			strconv.Itoa(row.Count),
			strconv.FormatFloat(row.AvgPrice, 'f', 2, 64),
			strconv.FormatFloat(row.MedianPrice, 'f', 2, 64),
			strconv.FormatFloat(row.AvgSqft, 'f', 2, 64),
			strconv.FormatFloat(row.MedianSqft, 'f', 2, 64),
			strconv.FormatFloat(row.AvgPricePerSqft, 'f', 2, 64),
			strconv.FormatFloat(row.MedianPricePerSqft, 'f', 2, 64),
			row.StationNames,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
