package scraper

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mkessler/rentalintel/helpers"
	"mkessler/rentalintel/internal/listing"
)

// ParseSearchResults extracts listing summaries from the board index page.
// Items missing a link or price come through with zero values; the cleaning
// pipeline is responsible for dropping them.
func ParseSearchResults(doc *goquery.Document) []listing.Record {
	var records []listing.Record
	now := time.Now()

	doc.Find(searchResultSelector).Each(func(_ int, s *goquery.Selection) {
		rec := listing.Record{
			ScrapedAt: now,
			Active:    true,
		}

		if href, exists := s.Find("a").First().Attr("href"); exists {
			rec.URL = strings.TrimSpace(href)
			rec.ExternalID = extractExternalID(rec.URL)
		}

		rec.Title = strings.TrimSpace(s.Find(resultTitleSelector).Text())
		rec.Location = strings.TrimSpace(s.Find(resultLocSelector).Text())

		if priceText := strings.TrimSpace(s.Find(resultPriceSelector).Text()); priceText != "" {
			rec.Price = parsePrice(priceText)
		}

		records = append(records, rec)
	})

	return records
}

// extractExternalID derives the stable listing identifier from the detail URL:
// the last path segment with the .html suffix stripped.
func extractExternalID(url string) string {
	if url == "" {
		return ""
	}
	last := helpers.LastSplitPart(strings.Split(url, "?")[0], "/")
	return strings.TrimSuffix(last, ".html")
}

// parsePrice strips the currency symbol and thousands separators
func parsePrice(text string) int {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(text, "$", ""), ",", "")
	n, err := strconv.Atoi(strings.TrimSpace(cleaned))
	if err != nil {
		return 0
	}
	return n
}
