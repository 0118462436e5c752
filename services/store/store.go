package store

// Filter narrows a listing query. Zero-valued fields are ignored. Queries are
// active-only unless IncludeInactive is set, and always ordered by capture
// timestamp descending.
type Filter struct {
	MinPrice  *int
	MaxPrice  *int
	Location  string // case-insensitive substring match
	Bedrooms  *int
	Bathrooms *float64
	Cats      *bool
	Dogs      *bool
	Laundry   string
	Parking   string

	// MissingBedrooms selects records the enrichment pass still needs to fill
	MissingBedrooms bool

	// NeedsGeocode selects records with an address but no coordinates
	NeedsGeocode bool

	IncludeInactive bool
}
