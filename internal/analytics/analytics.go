package analytics

import (
	"fmt"
	"math"
	"sort"

	"mkessler/rentalintel/internal/listing"
)

// Ranked views return at most this many entries.
const topN = 10

// NeighborhoodStat aggregates the active listings of one location.
type NeighborhoodStat struct {
	Location    string  `json:"location"`
	AvgPrice    float64 `json:"avg_price"`
	AvgBedrooms float64 `json:"avg_bedrooms"`
	Count       int     `json:"listing_count"`
	MinPrice    int     `json:"min_price"`
	MaxPrice    int     `json:"max_price"`
	AvgSqft     float64 `json:"avg_sqft"`
}

// PriceBucket is one bar of the price distribution.
type PriceBucket struct {
	Range string `json:"range"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// OverallStats summarizes the whole active record set.
type OverallStats struct {
	TotalListings int     `json:"total_listings"`
	AvgPrice      float64 `json:"avg_price"`
	AvgBedrooms   float64 `json:"avg_bedrooms"`
	LocationCount int     `json:"locations_count"`
	WithDetails   int     `json:"with_details"`
}

// Report bundles every derived view into one payload.
type Report struct {
	Overall           OverallStats       `json:"overall"`
	Neighborhoods     []NeighborhoodStat `json:"neighborhoods"`
	PriceDistribution []PriceBucket      `json:"price_distribution"`
	GoodDeals         []GoodDeal         `json:"good_deals"`
	BestPricePerSqft  []SqftDeal         `json:"best_price_per_sqft"`
	BestValue         []ValueEntry       `json:"best_value"`
}

// BuildReport computes every analytics view over the given active record set.
func BuildReport(records []listing.Record) *Report {
	stats := NeighborhoodStats(records)
	return &Report{
		Overall:           Overall(records),
		Neighborhoods:     stats,
		PriceDistribution: PriceDistribution(records),
		GoodDeals:         GoodDeals(records, stats),
		BestPricePerSqft:  BestPricePerSqft(records),
		BestValue:         BestValue(records, stats),
	}
}

// NeighborhoodStats groups records with a known bedroom count by location and
// orders the result by descending listing count.
func NeighborhoodStats(records []listing.Record) []NeighborhoodStat {
	type acc struct {
		priceSum    int
		bedroomSum  int
		sqftSum     int
		sqftCount   int
		count       int
		minPrice    int
		maxPrice    int
	}

	groups := make(map[string]*acc)
	for _, r := range records {
		if r.Bedrooms == nil {
			continue
		}
		g, ok := groups[r.Location]
		if !ok {
			g = &acc{minPrice: r.Price, maxPrice: r.Price}
			groups[r.Location] = g
		}
		g.priceSum += r.Price
		g.bedroomSum += *r.Bedrooms
		g.count++
		if r.Price < g.minPrice {
			g.minPrice = r.Price
		}
		if r.Price > g.maxPrice {
			g.maxPrice = r.Price
		}
		if r.Sqft != nil {
			g.sqftSum += *r.Sqft
			g.sqftCount++
		}
	}

	stats := make([]NeighborhoodStat, 0, len(groups))
	for loc, g := range groups {
		stat := NeighborhoodStat{
			Location:    loc,
			AvgPrice:    float64(g.priceSum) / float64(g.count),
			AvgBedrooms: float64(g.bedroomSum) / float64(g.count),
			Count:       g.count,
			MinPrice:    g.minPrice,
			MaxPrice:    g.maxPrice,
		}
		if g.sqftCount > 0 {
			stat.AvgSqft = float64(g.sqftSum) / float64(g.sqftCount)
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Location < stats[j].Location
	})

	return stats
}

// priceBucketEdges are the fixed distribution edges in dollars. The gap
// between 3000 and 3500 is intentional: listings in that band fall into no
// bucket.
var priceBucketEdges = [][2]int{
	{1, 1500},
	{1500, 2000},
	{2000, 2500},
	{2500, 3000},
	{3500, 4000},
	{4000, 5000},
	{5000, 10000},
}

// PriceDistribution counts active listings per fixed price bucket; each
// bucket covers [min, max).
func PriceDistribution(records []listing.Record) []PriceBucket {
	buckets := make([]PriceBucket, len(priceBucketEdges))
	for i, edges := range priceBucketEdges {
		buckets[i] = PriceBucket{
			Range: fmt.Sprintf("$%d-$%d", edges[0], edges[1]),
			Min:   edges[0],
			Max:   edges[1],
		}
	}

	for _, r := range records {
		for i := range buckets {
			if r.Price >= buckets[i].Min && r.Price < buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}

	return buckets
}

// Overall computes dataset-wide statistics over the active record set.
func Overall(records []listing.Record) OverallStats {
	stats := OverallStats{TotalListings: len(records)}
	if len(records) == 0 {
		return stats
	}

	locations := make(map[string]struct{})
	priceSum := 0
	bedroomSum := 0
	bedroomCount := 0

	for _, r := range records {
		priceSum += r.Price
		locations[r.Location] = struct{}{}
		if r.Bedrooms != nil {
			bedroomSum += *r.Bedrooms
			bedroomCount++
		}
		if r.HasCompleteDetails() {
			stats.WithDetails++
		}
	}

	stats.AvgPrice = round2(float64(priceSum) / float64(len(records)))
	if bedroomCount > 0 {
		stats.AvgBedrooms = round1(float64(bedroomSum) / float64(bedroomCount))
	}
	stats.LocationCount = len(locations)

	return stats
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
