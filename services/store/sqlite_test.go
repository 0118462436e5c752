package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkessler/rentalintel/internal/listing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string, price int) *listing.Record {
	return &listing.Record{
		ExternalID:  id,
		URL:         "https://example.org/apa/" + id + ".html",
		Title:       "Listing " + id,
		Price:       price,
		Location:    "Mission District",
		Bedrooms:    listing.Ptr(2),
		Bathrooms:   listing.Ptr(1.0),
		Sqft:        listing.Ptr(900),
		Address:     listing.Ptr("123 Valencia St"),
		Laundry:     listing.Ptr(listing.LaundryInUnit),
		Parking:     listing.Ptr(listing.ParkingStreet),
		CatsAllowed: true,
		ScrapedAt:   time.Now().UTC(),
		Active:      true,
		DataQuality: 86,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)

	rec := testRecord("770001", 3200)
	require.NoError(t, s.Create(rec))

	got, err := s.GetByExternalID("770001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, 3200, got.Price)
	assert.Equal(t, 2, *got.Bedrooms)
	assert.Equal(t, 1.0, *got.Bathrooms)
	assert.Equal(t, "123 Valencia St", *got.Address)
	assert.Equal(t, listing.LaundryInUnit, *got.Laundry)
	assert.True(t, got.CatsAllowed)
	assert.False(t, got.DogsAllowed)
	assert.Nil(t, got.Latitude)
	assert.True(t, got.Active)
	assert.Equal(t, 86, got.DataQuality)
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetByExternalID("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsert(t *testing.T) {
	s := openTestStore(t)

	rec := testRecord("770001", 3200)
	created, err := s.Upsert(rec)
	require.NoError(t, err)
	assert.True(t, created)

	rec.Price = 3000
	created, err = s.Upsert(rec)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetByExternalID("770001")
	require.NoError(t, err)
	assert.Equal(t, 3000, got.Price)
}

func TestFindDuplicate(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(testRecord("770001", 3200)))

	other := testRecord("770002", 3200)
	other.Title = "Listing 770001"

	dup, err := s.FindDuplicate(other.Title, other.Location, other.Price, other.ExternalID)
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "770001", dup.ExternalID)

	// A record never duplicates itself.
	dup, err = s.FindDuplicate("Listing 770001", "Mission District", 3200, "770001")
	require.NoError(t, err)
	assert.Nil(t, dup)
}

func TestListFiltersAndOrdering(t *testing.T) {
	s := openTestStore(t)

	older := testRecord("770001", 2000)
	older.ScrapedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.Create(older))

	newer := testRecord("770002", 4000)
	newer.Location = "SoMa"
	newer.Bedrooms = listing.Ptr(3)
	require.NoError(t, s.Create(newer))

	inactive := testRecord("770003", 2500)
	inactive.Active = false
	require.NoError(t, s.Create(inactive))

	all, err := s.Active()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "770002", all[0].ExternalID, "newest capture first")

	cheap, err := s.List(Filter{MaxPrice: listing.Ptr(2500)})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "770001", cheap[0].ExternalID)

	soma, err := s.List(Filter{Location: "soma"})
	require.NoError(t, err)
	require.Len(t, soma, 1)
	assert.Equal(t, "770002", soma[0].ExternalID)

	threeBed, err := s.List(Filter{Bedrooms: listing.Ptr(3)})
	require.NoError(t, err)
	assert.Len(t, threeBed, 1)

	withInactive, err := s.List(Filter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 3)
}

func TestListEnrichmentFilters(t *testing.T) {
	s := openTestStore(t)

	needsDetails := testRecord("770001", 2000)
	needsDetails.Bedrooms = nil
	require.NoError(t, s.Create(needsDetails))

	needsCoords := testRecord("770002", 2500)
	require.NoError(t, s.Create(needsCoords))

	geocoded := testRecord("770003", 2500)
	geocoded.Latitude = listing.Ptr(37.76)
	geocoded.Longitude = listing.Ptr(-122.42)
	require.NoError(t, s.Create(geocoded))

	missing, err := s.List(Filter{MissingBedrooms: true})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "770001", missing[0].ExternalID)

	toGeocode, err := s.List(Filter{NeedsGeocode: true})
	require.NoError(t, err)
	assert.Len(t, toGeocode, 2)
}

func TestMarkInactive(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(testRecord("770001", 2000)))
	require.NoError(t, s.Create(testRecord("770002", 2500)))

	n, err := s.MarkInactive([]string{"770001", "770002", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, err := s.Active()
	require.NoError(t, err)
	assert.Empty(t, active)

	// Records are retained, only flagged.
	got, err := s.GetByExternalID("770001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	n, err = s.MarkInactive(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSetCoordinates(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(testRecord("770001", 2000)))

	require.NoError(t, s.SetCoordinates("770001", 37.76, -122.42))

	got, err := s.GetByExternalID("770001")
	require.NoError(t, err)
	assert.Equal(t, 37.76, *got.Latitude)
	assert.Equal(t, -122.42, *got.Longitude)
}
