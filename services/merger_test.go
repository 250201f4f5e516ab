package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"station-homes/models"
	"station-homes/utils"
)

func testLogger() *utils.Logger { return utils.NewLogger() }

func fp(v float64) *float64 { return &v }

func rec(id, address string, price float64) *models.ListingRecord {
	return &models.ListingRecord{ID: id, FormattedAddress: address, Price: price}
}

// fakeSource returns canned listings keyed by coordinates and counts calls.
type fakeSource struct {
	calls   int64
	respond func(lat, lng float64) ([]*models.ListingRecord, error)
}

func (f *fakeSource) SearchNearby(_ context.Context, lat, lng float64, _ FetchParams) ([]*models.ListingRecord, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.respond(lat, lng)
}

func (f *fakeSource) callCount() int64 { return atomic.LoadInt64(&f.calls) }

var testParams = FetchParams{RadiusMiles: 1.5, MaxPrice: 600000, Status: "Active", Limit: 500}

func TestMergeZipDeduplicatesAcrossStations(t *testing.T) {
	shared := rec("dup-1", "1 Main St", 400000)
	source := &fakeSource{respond: func(lat, _ float64) ([]*models.ListingRecord, error) {
		if lat == 1 {
			return []*models.ListingRecord{shared, rec("a", "2 Oak Ave", 350000)}, nil
		}
		return []*models.ListingRecord{shared, rec("b", "3 Elm Rd", 380000)}, nil
	}}

	m := NewMerger(source, testLogger())
	sts := []models.Station{
		{Name: "A", Latitude: 1, Longitude: 1, ZipCode: "11550"},
		{Name: "B", Latitude: 2, Longitude: 2, ZipCode: "11550"},
	}
	batch := m.MergeZip(context.Background(), "11550", sts, testParams)

	if len(batch.Records) != 3 {
		t.Fatalf("records: got %d, want 3", len(batch.Records))
	}
	keys := make(map[string]int)
	for _, r := range batch.Records {
		keys[r.IdentityKey()]++
	}
	for key, n := range keys {
		if n > 1 {
			t.Errorf("identity key %q appears %d times", key, n)
		}
	}
}

func TestMergeZipFallbackIdentity(t *testing.T) {
	source := &fakeSource{respond: func(lat, _ float64) ([]*models.ListingRecord, error) {
		if lat == 1 {
			return []*models.ListingRecord{rec("", "1 Main St", 300000)}, nil
		}
		return []*models.ListingRecord{
			rec("", "1 Main St", 300000), // same address+price: duplicate
			rec("", "1 Main St", 310000), // same address, new price: distinct
		}, nil
	}}

	m := NewMerger(source, testLogger())
	sts := []models.Station{
		{Name: "A", Latitude: 1, ZipCode: "11550"},
		{Name: "B", Latitude: 2, ZipCode: "11550"},
	}
	batch := m.MergeZip(context.Background(), "11550", sts, testParams)

	if len(batch.Records) != 2 {
		t.Errorf("records: got %d, want 2", len(batch.Records))
	}
}

func TestMergeZipStationFailureDegrades(t *testing.T) {
	source := &fakeSource{respond: func(lat, _ float64) ([]*models.ListingRecord, error) {
		if lat == 1 {
			return nil, errors.New("504 gateway timeout")
		}
		return []*models.ListingRecord{rec("x", "", 0), rec("y", "", 0)}, nil
	}}

	m := NewMerger(source, testLogger())
	sts := []models.Station{
		{Name: "Broken", Latitude: 1, ZipCode: "11550"},
		{Name: "Healthy", Latitude: 2, ZipCode: "11550"},
	}
	batch := m.MergeZip(context.Background(), "11550", sts, testParams)

	if len(batch.Records) != 2 {
		t.Errorf("records: got %d, want 2 (failed station contributes zero)", len(batch.Records))
	}
	if source.callCount() != 2 {
		t.Errorf("calls: got %d, want 2 (no retry of the failed station)", source.callCount())
	}
}

func TestMergeZipKeepsFirstSeen(t *testing.T) {
	first := rec("dup", "1 Main St", 400000)
	first.PropertyType = "from-station-A"
	second := rec("dup", "1 Main St", 400000)
	second.PropertyType = "from-station-B"

	source := &fakeSource{respond: func(lat, _ float64) ([]*models.ListingRecord, error) {
		if lat == 1 {
			return []*models.ListingRecord{first}, nil
		}
		return []*models.ListingRecord{second}, nil
	}}

	m := NewMerger(source, testLogger())
	sts := []models.Station{
		{Name: "A", Latitude: 1, ZipCode: "11550"},
		{Name: "B", Latitude: 2, ZipCode: "11550"},
	}
	batch := m.MergeZip(context.Background(), "11550", sts, testParams)

	if len(batch.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(batch.Records))
	}
	if batch.Records[0].PropertyType != "from-station-A" {
		t.Errorf("kept copy: got %q, want the first-seen copy", batch.Records[0].PropertyType)
	}
}
