// Package rentcast queries the RentCast sale-listings API by coordinate and
// radius.
package rentcast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"station-homes/models"
)

const (
	defaultBaseURL = "https://api.rentcast.io/v1"
	defaultTimeout = 30 * time.Second

	// Two station rows can sit on the same platform coordinates; memoizing
	// responses for the length of a run avoids paying for the same query
	// twice.
	cacheExpiry  = 30 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// SearchQuery holds the parameters of one radius search.
type SearchQuery struct {
	Latitude    float64
	Longitude   float64
	RadiusMiles float64
	MaxPrice    float64
	Status      string
	Limit       int
}

func (q SearchQuery) cacheKey() string {
	return fmt.Sprintf("%.5f,%.5f,%.2f,%.0f", q.Latitude, q.Longitude, q.RadiusMiles, q.MaxPrice)
}

// Client is an HTTP client for the RentCast listings API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	memo       *cache.Cache
}

// New creates a Client with default settings.
func New(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		memo: cache.New(cacheExpiry, cacheCleanup),
	}
}

// SearchNearby fetches the active sale listings within the query radius of
// the given coordinates. A non-2xx status or an undecodable body is an error;
// callers treat it as "zero listings from this station".
func (c *Client) SearchNearby(ctx context.Context, q SearchQuery) ([]*models.ListingRecord, error) {
	key := q.cacheKey()
	if cached, found := c.memo.Get(key); found {
		return cached.([]*models.ListingRecord), nil
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(q.RadiusMiles, 'f', -1, 64))
	params.Set("status", q.Status)
	params.Set("maxPrice", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(q.Limit))

	reqURL := fmt.Sprintf("%s/listings/sale?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("rentcast: create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rentcast: fetch listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rentcast: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rentcast: read response body: %w", err)
	}

	var records []*models.ListingRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("rentcast: unmarshal response: %w", err)
	}

	c.memo.Set(key, records, cache.DefaultExpiration)
	return records, nil
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}
