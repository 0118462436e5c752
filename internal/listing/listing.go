package listing

import "time"

// Laundry categories
const (
	LaundryNone   = "none"
	LaundryInUnit = "in_unit"
	LaundryOnSite = "on_site"
)

// Parking categories
const (
	ParkingNone      = "none"
	ParkingStreet    = "street"
	ParkingOffStreet = "off_street"
	ParkingGarage    = "garage"
	ParkingCarport   = "carport"
)

// Record is the canonical listing unit. ExternalID is the stable
// source-assigned key and the merge key; it never changes across re-scrapes.
type Record struct {
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Price      int    `json:"price"`
	Location   string `json:"location"`

	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`
	Sqft      *int     `json:"sqft"`
	Address   *string  `json:"address"`

	CatsAllowed    bool    `json:"cats_allowed"`
	DogsAllowed    bool    `json:"dogs_allowed"`
	Laundry        *string `json:"laundry_type"`
	Parking        *string `json:"parking"`
	ExtraAmenities *string `json:"extra_amenities"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	ScrapedAt   time.Time `json:"scraped_at"`
	Active      bool      `json:"active"`
	DataQuality int       `json:"data_quality"`
}

// HasCompleteDetails reports whether every enrichable detail field is set.
func (r *Record) HasCompleteDetails() bool {
	return r.Bedrooms != nil &&
		r.Bathrooms != nil &&
		r.Address != nil &&
		r.Sqft != nil &&
		r.Laundry != nil &&
		r.Parking != nil
}

// HasCoordinates reports whether both geocoordinates are set.
func (r *Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}
