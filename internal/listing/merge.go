package listing

import "time"

// Merge overwrites r's scraped fields with values from in and returns the
// names of the fields that actually changed. The capture timestamp is always
// refreshed; the active flag is never touched here. A field counts as changed
// only when the values differ and at least one side is non-empty, so a nil
// slot staying nil across re-scrapes does not register as churn.
func (r *Record) Merge(in *Record) []string {
	var changed []string

	if r.URL != in.URL && (r.URL != "" || in.URL != "") {
		r.URL = in.URL
		changed = append(changed, "url")
	}
	if r.Title != in.Title && (r.Title != "" || in.Title != "") {
		r.Title = in.Title
		changed = append(changed, "title")
	}
	if r.Price != in.Price {
		r.Price = in.Price
		changed = append(changed, "price")
	}
	if r.Location != in.Location && (r.Location != "" || in.Location != "") {
		r.Location = in.Location
		changed = append(changed, "location")
	}

	if !intPtrEqual(r.Bedrooms, in.Bedrooms) {
		r.Bedrooms = in.Bedrooms
		changed = append(changed, "bedrooms")
	}
	if !floatPtrEqual(r.Bathrooms, in.Bathrooms) {
		r.Bathrooms = in.Bathrooms
		changed = append(changed, "bathrooms")
	}
	if !intPtrEqual(r.Sqft, in.Sqft) {
		r.Sqft = in.Sqft
		changed = append(changed, "sqft")
	}
	if !strPtrEqual(r.Address, in.Address) {
		r.Address = in.Address
		changed = append(changed, "address")
	}

	if r.CatsAllowed != in.CatsAllowed {
		r.CatsAllowed = in.CatsAllowed
		changed = append(changed, "cats_allowed")
	}
	if r.DogsAllowed != in.DogsAllowed {
		r.DogsAllowed = in.DogsAllowed
		changed = append(changed, "dogs_allowed")
	}
	if !strPtrEqual(r.Laundry, in.Laundry) {
		r.Laundry = in.Laundry
		changed = append(changed, "laundry_type")
	}
	if !strPtrEqual(r.Parking, in.Parking) {
		r.Parking = in.Parking
		changed = append(changed, "parking")
	}
	if !strPtrEqual(r.ExtraAmenities, in.ExtraAmenities) {
		r.ExtraAmenities = in.ExtraAmenities
		changed = append(changed, "extra_amenities")
	}

	// Coordinates come from the geocoder, not the scrape, so an unset incoming
	// pair must not wipe stored values.
	if in.Latitude != nil && in.Longitude != nil {
		if !floatPtrEqual(r.Latitude, in.Latitude) || !floatPtrEqual(r.Longitude, in.Longitude) {
			r.Latitude = in.Latitude
			r.Longitude = in.Longitude
			changed = append(changed, "coordinates")
		}
	}

	if r.DataQuality != in.DataQuality {
		r.DataQuality = in.DataQuality
		changed = append(changed, "data_quality")
	}

	if !in.ScrapedAt.IsZero() {
		r.ScrapedAt = in.ScrapedAt
	} else {
		r.ScrapedAt = time.Now()
	}

	return changed
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
