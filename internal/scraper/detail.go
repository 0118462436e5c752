package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"mkessler/rentalintel/internal/listing"
	apperrors "mkessler/rentalintel/pkg/errors"
)

// ErrMissingAddress is returned when a detail page parses but carries no
// street address heading. The heading is structurally expected, so its absence
// is a distinct extraction failure, not the page-removed condition.
var ErrMissingAddress = apperrors.NewParsing("detail", "street address heading not found", nil)

var sqftRegexp = regexp.MustCompile(`(?i)(\d+)ft`)

// Details holds the attributes extracted from one listing detail page.
type Details struct {
	Bedrooms       *int
	Bathrooms      *float64
	Sqft           *int
	Address        *string
	CatsAllowed    bool
	DogsAllowed    bool
	Laundry        *string
	Parking        *string
	ExtraAmenities *string
}

// Empty reports whether every extracted field is unset or false. This exact
// all-empty condition marks a listing page as removed and triggers
// deactivation in the enrichment and update passes.
func (d *Details) Empty() bool {
	return d.Bedrooms == nil &&
		d.Bathrooms == nil &&
		d.Sqft == nil &&
		d.Address == nil &&
		!d.CatsAllowed &&
		!d.DogsAllowed &&
		d.Laundry == nil &&
		d.Parking == nil &&
		d.ExtraAmenities == nil
}

// Apply merges the extracted details into a record and returns the names of
// the fields that changed.
func (d *Details) Apply(r *listing.Record) []string {
	updated := *r
	updated.Bedrooms = d.Bedrooms
	updated.Bathrooms = d.Bathrooms
	updated.Sqft = d.Sqft
	updated.Address = d.Address
	updated.CatsAllowed = d.CatsAllowed
	updated.DogsAllowed = d.DogsAllowed
	updated.Laundry = d.Laundry
	updated.Parking = d.Parking
	updated.ExtraAmenities = d.ExtraAmenities
	updated.DataQuality = r.DataQuality
	return r.Merge(&updated)
}

// ParseDetails extracts the detail attributes from a listing page document.
// A page whose structure no longer matches (no attribute groups) yields empty
// details and no error: the caller treats that as the page-removed condition.
// A page that parses but has no address heading returns the partial details
// together with ErrMissingAddress.
func ParseDetails(doc *goquery.Document) (*Details, error) {
	d := &Details{}

	groups := doc.Find(attrGroupSelector)
	if groups.Length() == 0 {
		return d, nil
	}

	important := groups.First().Find(importantSelector)
	if important.Length() == 0 {
		return d, nil
	}

	parseBedBath(important.First().Text(), d)

	if important.Length() > 1 {
		sqftText := strings.TrimSpace(important.Eq(1).Text())
		if m := sqftRegexp.FindStringSubmatch(sqftText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				d.Sqft = listing.Ptr(n)
			}
		}
	}

	if groups.Length() > extraAttrGroupIndex {
		parseExtraAttributes(groups.Eq(extraAttrGroupIndex), d)
	}

	addr := doc.Find(addressSelector)
	if addr.Length() == 0 {
		return d, ErrMissingAddress
	}
	d.Address = listing.Ptr(strings.TrimSpace(addr.First().Text()))

	return d, nil
}

// parseBedBath reads the compact "<bed>BR/<bath>BA" token. Only the leading
// digit of each side is significant; counts beyond 9 are not supported by the
// source format.
func parseBedBath(token string, d *Details) {
	parts := strings.Split(token, "/")

	left := strings.TrimSpace(parts[0])
	if n, ok := leadingDigit(left); ok {
		d.Bedrooms = listing.Ptr(n)
	}

	if len(parts) > 1 {
		right := strings.TrimSpace(parts[1])
		if n, ok := leadingDigit(right); ok {
			d.Bathrooms = listing.Ptr(float64(n))
		}
	}
}

func leadingDigit(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	r := rune(s[0])
	if !unicode.IsDigit(r) {
		return 0, false
	}
	return int(r - '0'), true
}

// parseExtraAttributes scans the shared extra-attributes block line by line.
// Pet statements are consumed by the indicator check; laundry and parking
// fragments map through ordered substring tables; anything else is carried
// verbatim into the extra-amenities free text.
func parseExtraAttributes(group *goquery.Selection, d *Details) {
	if group.Find(catsSelector).Length() > 0 {
		d.CatsAllowed = true
	}
	if group.Find(dogsSelector).Length() > 0 {
		d.DogsAllowed = true
	}

	var amenities []string

	group.Children().Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		if strings.Contains(text, "cats are OK") || strings.Contains(text, "dogs are OK") {
			return
		}

		if laundry, ok := matchLaundry(text); ok {
			d.Laundry = listing.Ptr(laundry)
			return
		}

		if parking, ok := matchParking(text); ok {
			d.Parking = listing.Ptr(parking)
			return
		}

		amenities = append(amenities, text)
	})

	if len(amenities) > 0 {
		d.ExtraAmenities = listing.Ptr(strings.Join(amenities, ", "))
	}
}

func matchLaundry(text string) (string, bool) {
	switch {
	case strings.Contains(text, "w/d in unit"):
		return listing.LaundryInUnit, true
	case strings.Contains(text, "laundry on site"), strings.Contains(text, "laundry in bldg"):
		return listing.LaundryOnSite, true
	case strings.Contains(text, "no laundry"):
		return listing.LaundryNone, true
	}
	return "", false
}

func matchParking(text string) (string, bool) {
	switch {
	case strings.Contains(text, "attached garage"), strings.Contains(text, "detached garage"):
		return listing.ParkingGarage, true
	case strings.Contains(text, "off-street"):
		return listing.ParkingOffStreet, true
	case strings.Contains(text, "carport"):
		return listing.ParkingCarport, true
	case strings.Contains(text, "street parking"):
		return listing.ParkingStreet, true
	case strings.Contains(text, "no parking"):
		return listing.ParkingNone, true
	}
	return "", false
}
