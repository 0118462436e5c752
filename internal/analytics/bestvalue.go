package analytics

import (
	"sort"

	"mkessler/rentalintel/internal/listing"
)

// Entries scoring below this total are dropped from the best-value ranking.
const bestValueCutoff = 40

// ValueFactors is the per-factor breakdown of a best-value score.
type ValueFactors struct {
	PricePerSqft    int     `json:"price_per_sqft"`
	BelowMarket     int     `json:"below_market"`
	PricePerBedroom int     `json:"price_per_bedroom"`
	Amenities       int     `json:"amenities"`
	DataQuality     float64 `json:"data_quality"`
}

// ValueEntry is one listing in the overall best-value ranking.
type ValueEntry struct {
	ExternalID   string       `json:"external_id"`
	Title        string       `json:"title"`
	Price        int          `json:"price"`
	Location     string       `json:"location"`
	PricePerSqft float64      `json:"price_per_sqft"`
	Score        float64      `json:"score"`
	Factors      ValueFactors `json:"factors"`
	URL          string       `json:"url"`
}

// BestValue ranks listings by a multi-factor score combining affordability,
// market position, amenities and data quality. Listings without a plausible
// price per square foot are excluded entirely.
func BestValue(records []listing.Record, stats []NeighborhoodStat) []ValueEntry {
	avgs := make(map[string]float64, len(stats))
	for _, s := range stats {
		avgs[s.Location] = s.AvgPrice
	}

	var entries []ValueEntry
	for _, r := range records {
		if r.Sqft == nil || *r.Sqft <= 0 {
			continue
		}
		perSqft := float64(r.Price) / float64(*r.Sqft)
		if perSqft < minPricePerSqft || perSqft > maxPricePerSqft {
			continue
		}

		factors := ValueFactors{
			PricePerSqft:    pricePerSqftFactor(perSqft),
			BelowMarket:     belowMarketFactor(r.Price, avgs[r.Location]),
			PricePerBedroom: pricePerBedroomFactor(&r),
			Amenities:       amenityFactor(&r),
			DataQuality:     float64(r.DataQuality) / 100 * 10,
		}

		total := float64(factors.PricePerSqft+factors.BelowMarket+factors.PricePerBedroom+factors.Amenities) + factors.DataQuality
		if total < bestValueCutoff {
			continue
		}

		entries = append(entries, ValueEntry{
			ExternalID:   r.ExternalID,
			Title:        r.Title,
			Price:        r.Price,
			Location:     r.Location,
			PricePerSqft: round2(perSqft),
			Score:        round2(total),
			Factors:      factors,
			URL:          r.URL,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// pricePerSqftFactor rewards cheap square footage, max 30
func pricePerSqftFactor(perSqft float64) int {
	switch {
	case perSqft <= 2.50:
		return 30
	case perSqft <= 3.00:
		return 25
	case perSqft <= 3.50:
		return 20
	case perSqft <= 4.00:
		return 15
	default:
		return 10
	}
}

// belowMarketFactor rewards prices under the neighborhood average, max 25.
// Unknown average scores zero.
func belowMarketFactor(price int, avg float64) int {
	if avg == 0 {
		return 0
	}
	percent := float64(price) / avg * 100
	switch {
	case percent <= 70:
		return 25
	case percent <= 80:
		return 20
	case percent <= 90:
		return 15
	case percent <= 100:
		return 10
	default:
		return 5
	}
}

// pricePerBedroomFactor rewards cheap bedrooms, max 20
func pricePerBedroomFactor(r *listing.Record) int {
	if r.Bedrooms == nil || *r.Bedrooms <= 0 {
		return 0
	}
	perBedroom := float64(r.Price) / float64(*r.Bedrooms)
	switch {
	case perBedroom <= 1500:
		return 20
	case perBedroom <= 2000:
		return 15
	case perBedroom <= 2500:
		return 10
	case perBedroom <= 3000:
		return 5
	default:
		return 0
	}
}

// amenityFactor sums small bonuses for parking, laundry and pet policy
func amenityFactor(r *listing.Record) int {
	score := 0

	if r.Parking != nil {
		switch *r.Parking {
		case listing.ParkingGarage:
			score += 7
		case listing.ParkingOffStreet:
			score += 5
		case listing.ParkingCarport:
			score += 3
		case listing.ParkingStreet:
			score += 1
		}
	}

	if r.Laundry != nil {
		switch *r.Laundry {
		case listing.LaundryInUnit:
			score += 5
		case listing.LaundryOnSite:
			score += 3
		}
	}

	switch {
	case r.CatsAllowed && r.DogsAllowed:
		score += 3
	case r.CatsAllowed || r.DogsAllowed:
		score += 2
	}

	return score
}
