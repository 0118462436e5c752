package etl

import (
	"strings"

	"mkessler/rentalintel/internal/listing"
)

var (
	// descriptive title keywords, a weak signal the post is a real unit
	goodTitleKeywords = []string{"studio", "bedroom", "apt", "apartment", "house", "condo"}

	// clickbait keywords, a weak scam signal
	badTitleKeywords = []string{"cheap", "deal", "urgent", "click"}
)

// QualityScore computes the 0-100 data-quality score for a record from
// completeness and plausibility signals. It measures trust in the data, not
// market value. Price bands are evaluated in order; the first matching band
// wins, so a price of exactly 8000 lands in the normal band.
func QualityScore(r *listing.Record) int {
	score := 0

	if r.Title != "" {
		score += 10
	}
	if r.Price > 0 {
		score += 10
	}
	if r.Location != "" {
		score += 10
	}
	if r.URL != "" {
		score += 10
	}

	if r.Bedrooms != nil {
		score += 6
	}
	if r.Bathrooms != nil {
		score += 6
	}
	if r.Sqft != nil {
		score += 6
	}
	if r.Address != nil {
		score += 6
	}
	if r.Laundry != nil {
		score += 3
	}
	if r.Parking != nil {
		score += 3
	}

	if r.Latitude != nil && r.Longitude != nil {
		score += 10
	}

	titleLower := strings.ToLower(r.Title)
	if containsAny(titleLower, goodTitleKeywords) {
		score += 5
	}
	if containsAny(titleLower, badTitleKeywords) {
		score -= 10
	}

	price := r.Price
	switch {
	case price >= 1000 && price <= 8000:
		score += 10
	case price < 500:
		score -= 20
	case price > 10000:
		score -= 10
	case price >= 500 && price < 1000:
		score -= 5
	case price >= 8000 && price <= 10000:
		score -= 5
	}

	if r.Bedrooms != nil && *r.Bedrooms > 0 {
		perBedroom := float64(price) / float64(*r.Bedrooms)
		switch {
		case perBedroom >= 1000 && perBedroom <= 3500:
			score += 5
		case perBedroom <= 750 || perBedroom >= 4000:
			score -= 10
		}
	}

	return clamp(score, 0, 100)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
