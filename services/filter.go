package services

import (
	"strings"

	"station-homes/models"
	"station-homes/utils"
)

// EligibilityPolicy holds the acceptance thresholds for the filtered set.
type EligibilityPolicy struct {
	MaxPrice     float64
	MinBedrooms  float64
	MinBathrooms float64
}

// Filter applies the livability acceptance policy to the deduplicated
// listing set.
type Filter struct {
	policy EligibilityPolicy
	logger *utils.Logger
}

// NewFilter creates a Filter with the given policy.
func NewFilter(policy EligibilityPolicy, logger *utils.Logger) *Filter {
	return &Filter{policy: policy, logger: logger}
}

// Apply returns the records passing every eligibility check, in input order.
func (f *Filter) Apply(records []*models.ListingRecord) []*models.ListingRecord {
	result := make([]*models.ListingRecord, 0, len(records))
	for _, r := range records {
		if f.eligible(r) {
			result = append(result, r)
		}
	}

	f.logger.Info("[filter] %d → %d listings (max price %.0f, %v+ bedrooms, %v+ bathrooms, no land)",
		len(records), len(result), f.policy.MaxPrice, f.policy.MinBedrooms, f.policy.MinBathrooms)
	return result
}

// eligible checks one record against the policy. Bedrooms are a hard
// requirement: a missing value fails the listing. Bathrooms are soft: only a
// present value below the minimum fails.
func (f *Filter) eligible(r *models.ListingRecord) bool {
	if r.Price > f.policy.MaxPrice {
		return false
	}

	// Empty lots are not livable regardless of price.
	if strings.ToLower(r.PropertyType) == "land" {
		return false
	}

	if r.Bathrooms != nil && *r.Bathrooms < f.policy.MinBathrooms {
		return false
	}

	if r.Bedrooms == nil || *r.Bedrooms < f.policy.MinBedrooms {
		return false
	}

	return true
}
