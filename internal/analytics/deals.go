package analytics

import (
	"sort"

	"mkessler/rentalintel/internal/listing"
)

// Plausibility window for price per square foot, in dollars. Values outside
// it are treated as data errors, not bargains.
const (
	minPricePerSqft = 1.50
	maxPricePerSqft = 6.00
)

// GoodDeal is a listing priced well below its neighborhood average.
type GoodDeal struct {
	ExternalID     string  `json:"external_id"`
	Title          string  `json:"title"`
	Price          int     `json:"price"`
	Location       string  `json:"location"`
	AvgPrice       float64 `json:"avg_price"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
	URL            string  `json:"url"`
}

// SqftDeal is a listing ranked by price per square foot.
type SqftDeal struct {
	ExternalID   string   `json:"external_id"`
	Title        string   `json:"title"`
	Price        int      `json:"price"`
	Sqft         int      `json:"sqft"`
	PricePerSqft float64  `json:"price_per_sqft"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	Location     string   `json:"location"`
	URL          string   `json:"url"`
}

// GoodDeals returns the top listings priced strictly below 90% of their
// neighborhood average, ranked by absolute savings. A listing at exactly 90%
// does not qualify.
func GoodDeals(records []listing.Record, stats []NeighborhoodStat) []GoodDeal {
	avgs := make(map[string]float64, len(stats))
	for _, s := range stats {
		avgs[s.Location] = s.AvgPrice
	}

	var deals []GoodDeal
	for _, r := range records {
		if r.Bedrooms == nil {
			continue
		}
		avg, ok := avgs[r.Location]
		if !ok || avg == 0 {
			continue
		}
		if float64(r.Price) >= avg*0.9 {
			continue
		}
		savings := avg - float64(r.Price)
		deals = append(deals, GoodDeal{
			ExternalID:     r.ExternalID,
			Title:          r.Title,
			Price:          r.Price,
			Location:       r.Location,
			AvgPrice:       round2(avg),
			Savings:        round2(savings),
			SavingsPercent: round1(savings / avg * 100),
			URL:            r.URL,
		})
	}

	sort.Slice(deals, func(i, j int) bool {
		return deals[i].Savings > deals[j].Savings
	})

	if len(deals) > topN {
		deals = deals[:topN]
	}
	return deals
}

// BestPricePerSqft ranks listings with known bedrooms and positive square
// footage by ascending price per square foot, excluding implausible ratios.
func BestPricePerSqft(records []listing.Record) []SqftDeal {
	var deals []SqftDeal
	for _, r := range records {
		if r.Bedrooms == nil || r.Sqft == nil || *r.Sqft <= 0 {
			continue
		}
		perSqft := float64(r.Price) / float64(*r.Sqft)
		if perSqft < minPricePerSqft || perSqft > maxPricePerSqft {
			continue
		}
		deals = append(deals, SqftDeal{
			ExternalID:   r.ExternalID,
			Title:        r.Title,
			Price:        r.Price,
			Sqft:         *r.Sqft,
			PricePerSqft: round2(perSqft),
			Bedrooms:     *r.Bedrooms,
			Bathrooms:    r.Bathrooms,
			Location:     r.Location,
			URL:          r.URL,
		})
	}

	sort.Slice(deals, func(i, j int) bool {
		return deals[i].PricePerSqft < deals[j].PricePerSqft
	})

	if len(deals) > topN {
		deals = deals[:topN]
	}
	return deals
}
