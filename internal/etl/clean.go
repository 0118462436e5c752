package etl

import (
	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/logger"
)

// Price bounds for the outlier filter, both ends inclusive.
const (
	minPlausiblePrice = 500
	maxPlausiblePrice = 10000
)

// Stats counts what the cleaning pipeline did with a batch. Dropped records
// are not errors; they only show up here in aggregate.
type Stats struct {
	Input         int
	MissingFields int
	PriceOutliers int
	Output        int
}

// Cleaner validates, normalizes and scores raw scraped records.
type Cleaner struct {
	log *logger.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{log: logger.ForComponent("cleaner")}
}

// Clean runs the pipeline over a batch of raw records:
// drop records missing a required field, normalize location and title,
// drop price outliers, then attach the quality score.
func (c *Cleaner) Clean(raw []listing.Record) ([]listing.Record, Stats) {
	stats := Stats{Input: len(raw)}
	result := make([]listing.Record, 0, len(raw))

	for _, rec := range raw {
		if rec.ExternalID == "" || rec.URL == "" || rec.Title == "" || rec.Price == 0 {
			stats.MissingFields++
			continue
		}

		rec.Location = NormalizeLocation(rec.Location)
		rec.Title = CollapseWhitespace(rec.Title)

		if rec.Price < minPlausiblePrice || rec.Price > maxPlausiblePrice {
			stats.PriceOutliers++
			continue
		}

		rec.DataQuality = QualityScore(&rec)
		result = append(result, rec)
	}

	stats.Output = len(result)

	c.log.Info().
		Int("input", stats.Input).
		Int("missing_fields", stats.MissingFields).
		Int("price_outliers", stats.PriceOutliers).
		Int("output", stats.Output).
		Msg("Cleaned batch")

	return result, stats
}
