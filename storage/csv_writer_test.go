package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"station-homes/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestListingCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "homes.csv")
	sts := []models.Station{
		{Name: "Hempstead", Latitude: 40.7062, Longitude: -73.6187, ZipCode: "11550"},
		{Name: "Garden City", Latitude: 40.7268, Longitude: -73.6343, ZipCode: "11530"},
	}

	w, err := NewListingCSVWriter(path, sts)
	if err != nil {
		t.Fatalf("NewListingCSVWriter: %v", err)
	}

	records := []*models.ListingRecord{
		{
			ID:               "a",
			FormattedAddress: "1 Main Street, Hempstead, NY 11550",
			ZipCode:          "11550",
			Latitude:         fp(40.7070),
			Longitude:        fp(-73.6190),
			Price:            400000,
			Bedrooms:         fp(3),
			ListingAgent:     &models.ListingAgent{Name: "Pat Doe", Phone: "5165550100"},
		},
		{ID: "b", Price: 350000}, // no coordinates, no agent
	}
	if err := w.Write(records); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3 (header + 2)", len(rows))
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	first := rows[1]
	if first[col["id"]] != "a" {
		t.Errorf("id: got %q", first[col["id"]])
	}
	if first[col["price"]] != "400000" {
		t.Errorf("price: got %q, want 400000", first[col["price"]])
	}
	if first[col["bedrooms"]] != "3" {
		t.Errorf("bedrooms: got %q, want 3", first[col["bedrooms"]])
	}
	if first[col["listingAgent_name"]] != "Pat Doe" {
		t.Errorf("agent name: got %q", first[col["listingAgent_name"]])
	}
	wantURL := "https://www.zillow.com/homes/1-Main-St-Hempstead-NY-11550_rb/"
	if first[col["listingUrl"]] != wantURL {
		t.Errorf("listingUrl: got %q, want %q", first[col["listingUrl"]], wantURL)
	}
	if first[col["nearestStation"]] != "Hempstead" {
		t.Errorf("nearestStation: got %q, want Hempstead", first[col["nearestStation"]])
	}

	second := rows[2]
	if second[col["bedrooms"]] != "" {
		t.Errorf("absent bedrooms should be empty, got %q", second[col["bedrooms"]])
	}
	if second[col["nearestStation"]] != "" {
		t.Errorf("listing without coordinates should have no nearest station, got %q",
			second[col["nearestStation"]])
	}
}

func TestWriteInventoryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	rows := []models.InventoryRow{
		{ZipCode: "11550", StationNames: "Hempstead", Count: 12, AvgPrice: 450000.5, MedianPrice: 440000, AvgSqft: 1600, MedianSqft: 1550},
		{ZipCode: "11530", Count: 7, AvgPrice: 520000, MedianPrice: 515000},
	}

	if err := WriteInventoryCSV(path, rows); err != nil {
		t.Fatalf("WriteInventoryCSV: %v", err)
	}

	got := readCSV(t, path)
	if len(got) != 3 {
		t.Fatalf("rows: got %d, want 3", len(got))
	}
	if got[1][0] != "11550" || got[1][1] != "12" {
		t.Errorf("first row: %v", got[1])
	}
	if got[1][2] != "450000.50" {
		t.Errorf("avg_price: got %q, want 450000.50", got[1][2])
	}
	if got[1][8] != "Hempstead" {
		t.Errorf("stations: got %q, want Hempstead", got[1][8])
	}
	if got[2][8] != "" {
		t.Errorf("stations: got %q, want empty", got[2][8])
	}
}
