package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Station is one commuter rail station row from the enriched stations CSV.
// Many stations may share a zip code; the batch for that zip fetches from all
// of them.
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
	ZipCode   string
	Branch    string
}

// ListingAgent holds the agent contact info nested inside a listing payload.
type ListingAgent struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ListingRecord is one listing as reported by the external source. The fields
// the pipeline inspects are typed; every other provider field is preserved
// verbatim in Extra and written back out untouched.
//
// Bedrooms and Bathrooms are pointers because the eligibility policy treats
// "absent" differently from zero: missing bedrooms fail a listing, missing
// bathrooms do not.
type ListingRecord struct {
	ID               string
	FormattedAddress string
	AddressLine1     string
	City             string
	State            string
	ZipCode          string
	Latitude         *float64
	Longitude        *float64
	PropertyType     string
	Bedrooms         *float64
	Bathrooms        *float64
	SquareFootage    *float64
	LotSize          *float64
	YearBuilt        *int
	Price            float64
	Status           string
	ListingType      string
	ListedDate       string
	DaysOnMarket     *int
	MLSNumber        string
	County           string
	ListingAgent     *ListingAgent

	// Extra carries provider fields the pipeline does not inspect.
	Extra map[string]json.RawMessage
}

// IdentityKey returns the key under which duplicate listings are collapsed:
// the provider ID when present, otherwise address and price joined with "|".
func (r *ListingRecord) IdentityKey() string {
	if r.ID != "" {
		return r.ID
	}
	return r.FormattedAddress + "|" + strconv.FormatFloat(r.Price, 'f', -1, 64)
}

// UnmarshalJSON decodes the typed fields and keeps everything else in Extra.
func (r *ListingRecord) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		if string(v) == "null" {
			return nil
		}
		return json.Unmarshal(v, dst)
	}

	fields := []struct {
		key string
		dst any
	}{
		{"id", &r.ID},
		{"formattedAddress", &r.FormattedAddress},
		{"addressLine1", &r.AddressLine1},
		{"city", &r.City},
		{"state", &r.State},
		{"zipCode", &r.ZipCode},
		{"latitude", &r.Latitude},
		{"longitude", &r.Longitude},
		{"propertyType", &r.PropertyType},
		{"bedrooms", &r.Bedrooms},
		{"bathrooms", &r.Bathrooms},
		{"squareFootage", &r.SquareFootage},
		{"lotSize", &r.LotSize},
		{"yearBuilt", &r.YearBuilt},
		{"price", &r.Price},
		{"status", &r.Status},
		{"listingType", &r.ListingType},
		{"listedDate", &r.ListedDate},
		{"daysOnMarket", &r.DaysOnMarket},
		{"mlsNumber", &r.MLSNumber},
		{"county", &r.County},
		{"listingAgent", &r.ListingAgent},
	}
	for _, f := range fields {
		if err := take(f.key, f.dst); err != nil {
			return err
		}
	}

	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// MarshalJSON writes the typed fields merged with the preserved Extra fields.
func (r *ListingRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+22)
	for k, v := range r.Extra {
		out[k] = v
	}

	putStr := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	putStr("id", r.ID)
	putStr("formattedAddress", r.FormattedAddress)
	putStr("addressLine1", r.AddressLine1)
	putStr("city", r.City)
	putStr("state", r.State)
	putStr("zipCode", r.ZipCode)
	putStr("propertyType", r.PropertyType)
	putStr("status", r.Status)
	putStr("listingType", r.ListingType)
	putStr("listedDate", r.ListedDate)
	putStr("mlsNumber", r.MLSNumber)
	putStr("county", r.County)

	if r.Latitude != nil {
		out["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		out["longitude"] = *r.Longitude
	}
	if r.Bedrooms != nil {
		out["bedrooms"] = *r.Bedrooms
	}
	if r.Bathrooms != nil {
		out["bathrooms"] = *r.Bathrooms
	}
	if r.SquareFootage != nil {
		out["squareFootage"] = *r.SquareFootage
	}
	if r.LotSize != nil {
		out["lotSize"] = *r.LotSize
	}
	if r.YearBuilt != nil {
		out["yearBuilt"] = *r.YearBuilt
	}
	if r.DaysOnMarket != nil {
		out["daysOnMarket"] = *r.DaysOnMarket
	}
	if r.ListingAgent != nil {
		out["listingAgent"] = r.ListingAgent
	}
	out["price"] = r.Price

	return json.Marshal(out)
}

// PostalCodeBatch is one cached unit of work: all listings fetched for one
// zip code's stations during one run. Immutable once persisted.
type PostalCodeBatch struct {
	ZipCode   string           `json:"zipCode"`
	Stations  []Station        `json:"stations"`
	Records   []*ListingRecord `json:"records"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// InventoryRow holds the per-zip descriptive statistics for the inventory
// summary CSV.
type InventoryRow struct {
	ZipCode            string
	StationNames       string
	Count              int
	AvgPrice           float64
	MedianPrice        float64
	AvgSqft            float64
	MedianSqft         float64
	AvgPricePerSqft    float64
	MedianPricePerSqft float64
}
