package rentcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testQuery() SearchQuery {
	return SearchQuery{
		Latitude:    40.7062,
		Longitude:   -73.6187,
		RadiusMiles: 1.5,
		MaxPrice:    600000,
		Status:      "Active",
		Limit:       500,
	}
}

func TestSearchNearby(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)

		if got := r.URL.Path; got != "/listings/sale" {
			t.Errorf("path: got %q, want /listings/sale", got)
		}
		q := r.URL.Query()
		if q.Get("status") != "Active" {
			t.Errorf("status: got %q, want Active", q.Get("status"))
		}
		if q.Get("radius") != "1.5" {
			t.Errorf("radius: got %q, want 1.5", q.Get("radius"))
		}
		if q.Get("maxPrice") != "600000" {
			t.Errorf("maxPrice: got %q, want 600000", q.Get("maxPrice"))
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing API key header")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a","price":400000,"bedrooms":3},{"id":"b","price":350000}]`))
	}))
	defer server.Close()

	c := New("test-key")
	c.SetBaseURL(server.URL)

	records, err := c.SearchNearby(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if records[0].ID != "a" || records[0].Price != 400000 {
		t.Errorf("first record: %+v", records[0])
	}

	// Identical query is served from the memo, not the network.
	if _, err := c.SearchNearby(context.Background(), testQuery()); err != nil {
		t.Fatalf("memoized SearchNearby: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits: got %d, want 1", hits)
	}
}

func TestSearchNearbyNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New("test-key")
	c.SetBaseURL(server.URL)

	if _, err := c.SearchNearby(context.Background(), testQuery()); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestSearchNearbyMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "not an array"`))
	}))
	defer server.Close()

	c := New("test-key")
	c.SetBaseURL(server.URL)

	if _, err := c.SearchNearby(context.Background(), testQuery()); err == nil {
		t.Error("expected error for malformed body")
	}
}
