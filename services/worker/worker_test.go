package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/internal/scraper"
	apperrors "mkessler/rentalintel/pkg/errors"
	"mkessler/rentalintel/services/geocoder"
	"mkessler/rentalintel/services/store"
)

type mockSource struct {
	results    []listing.Record
	details    map[string]*scraper.Details
	detailErrs map[string]error
	fetches    int
}

func (m *mockSource) FetchSearchResults() ([]listing.Record, error) {
	return m.results, nil
}

func (m *mockSource) FetchDetails(url string) (*scraper.Details, error) {
	m.fetches++
	if err, ok := m.detailErrs[url]; ok {
		return nil, err
	}
	if d, ok := m.details[url]; ok {
		return d, nil
	}
	return &scraper.Details{}, nil
}

type mockPublisher struct {
	events []string
}

func (m *mockPublisher) Publish(eventType string, _ []byte) error {
	m.events = append(m.events, eventType)
	return nil
}

func (m *mockPublisher) TrimStreams() error { return nil }
func (m *mockPublisher) Close() error       { return nil }

type staticGeocoder struct {
	result *geocoder.Result
}

func (g *staticGeocoder) Geocode(_ context.Context, _ string) (*geocoder.Result, error) {
	return g.result, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func summaryRecord(id string, price int) listing.Record {
	return listing.Record{
		ExternalID: id,
		URL:        "https://example.org/apa/" + id + ".html",
		Title:      "Sunny apartment " + id,
		Price:      price,
		Location:   "mission district",
		ScrapedAt:  time.Now().UTC(),
		Active:     true,
	}
}

func fullDetails() *scraper.Details {
	return &scraper.Details{
		Bedrooms:    listing.Ptr(2),
		Bathrooms:   listing.Ptr(1.0),
		Sqft:        listing.Ptr(900),
		Address:     listing.Ptr("123 Valencia St"),
		CatsAllowed: true,
		Laundry:     listing.Ptr(listing.LaundryInUnit),
		Parking:     listing.Ptr(listing.ParkingStreet),
	}
}

func TestScrapePassCreatesRecords(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	src := &mockSource{
		results: []listing.Record{rec},
		details: map[string]*scraper.Details{rec.URL: fullDetails()},
	}
	pub := &mockPublisher{}
	w := New(src, st, nil, nil, pub, NopPacer{})

	require.NoError(t, w.ScrapePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Mission District", got.Location, "location normalized")
	assert.Equal(t, 2, *got.Bedrooms)
	assert.Equal(t, "123 Valencia St", *got.Address)
	assert.True(t, got.DataQuality > 50)
	assert.Equal(t, []string{"created"}, pub.events)
}

func TestScrapePassKeepsSummaryOnDetailFailure(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	src := &mockSource{
		results:    []listing.Record{rec},
		detailErrs: map[string]error{rec.URL: apperrors.NewNetwork("fetch", rec.URL, nil)},
	}
	w := New(src, st, nil, nil, nil, NopPacer{})

	require.NoError(t, w.ScrapePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Bedrooms)
	assert.True(t, got.Active)
}

func TestScrapePassSkipsReposts(t *testing.T) {
	st := openTestStore(t)

	original := summaryRecord("770001", 3200)
	original.Location = "Mission District"
	original.Title = "Sunny apartment"
	require.NoError(t, st.Create(&original))

	repost := summaryRecord("770002", 3200)
	repost.Title = "Sunny apartment"
	src := &mockSource{results: []listing.Record{repost}}
	w := New(src, st, nil, nil, nil, NopPacer{})

	require.NoError(t, w.ScrapePass(context.Background()))

	got, err := st.GetByExternalID("770002")
	require.NoError(t, err)
	assert.Nil(t, got, "repost with same title/location/price not stored")
}

func TestScrapePassIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	src := &mockSource{
		results: []listing.Record{rec},
		details: map[string]*scraper.Details{rec.URL: fullDetails()},
	}
	pub := &mockPublisher{}
	w := New(src, st, nil, nil, pub, NopPacer{})

	require.NoError(t, w.ScrapePass(context.Background()))
	require.NoError(t, w.ScrapePass(context.Background()))

	// The second pass sees identical data and publishes nothing new.
	assert.Equal(t, []string{"created"}, pub.events)
}

func TestScrapePassGeocodesNewListings(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	src := &mockSource{
		results: []listing.Record{rec},
		details: map[string]*scraper.Details{rec.URL: fullDetails()},
	}
	geo := &staticGeocoder{result: &geocoder.Result{Latitude: 37.76, Longitude: -122.42}}
	w := New(src, st, geo, nil, nil, NopPacer{})

	require.NoError(t, w.ScrapePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	require.True(t, got.HasCoordinates())
	assert.Equal(t, 37.76, *got.Latitude)
}

func TestUpdatePassDeactivatesGonePages(t *testing.T) {
	st := openTestStore(t)
	gone := summaryRecord("770001", 3200)
	gone.Location = "Mission District"
	require.NoError(t, st.Create(&gone))

	// No details registered for the URL: the mock returns an empty
	// extraction, the page-gone signal.
	src := &mockSource{}
	pub := &mockPublisher{}
	w := New(src, st, nil, nil, pub, NopPacer{})

	require.NoError(t, w.UpdatePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	assert.False(t, got.Active, "record retained but inactive")
	assert.Equal(t, []string{"deactivated"}, pub.events)
}

func TestUpdatePassPublishesChanges(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	rec.Location = "Mission District"
	rec.Bedrooms = listing.Ptr(1)
	require.NoError(t, st.Create(&rec))

	d := fullDetails() // bedrooms 2, a change
	src := &mockSource{details: map[string]*scraper.Details{rec.URL: d}}
	pub := &mockPublisher{}
	w := New(src, st, nil, nil, pub, NopPacer{})

	require.NoError(t, w.UpdatePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Bedrooms)
	assert.Equal(t, []string{"updated"}, pub.events)
}

func TestBackfillPassFillsMissingDetails(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	rec.Location = "Mission District"
	require.NoError(t, st.Create(&rec))

	complete := summaryRecord("770002", 2800)
	complete.Location = "SoMa"
	complete.Bedrooms = listing.Ptr(1)
	require.NoError(t, st.Create(&complete))

	src := &mockSource{details: map[string]*scraper.Details{rec.URL: fullDetails()}}
	w := New(src, st, nil, nil, nil, NopPacer{})

	require.NoError(t, w.BackfillPass(context.Background()))

	assert.Equal(t, 1, src.fetches, "only the record missing details is revisited")

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Bedrooms)
}

func TestGeocodePass(t *testing.T) {
	st := openTestStore(t)
	rec := summaryRecord("770001", 3200)
	rec.Location = "Mission District"
	rec.Address = listing.Ptr("123 Valencia St")
	require.NoError(t, st.Create(&rec))

	unresolvable := summaryRecord("770002", 2800)
	require.NoError(t, st.Create(&unresolvable))

	geo := &staticGeocoder{result: &geocoder.Result{Latitude: 37.76, Longitude: -122.42}}
	w := New(&mockSource{}, st, geo, nil, nil, NopPacer{})

	require.NoError(t, w.GeocodePass(context.Background()))

	got, err := st.GetByExternalID("770001")
	require.NoError(t, err)
	require.True(t, got.HasCoordinates())
	assert.Equal(t, -122.42, *got.Longitude)

	other, err := st.GetByExternalID("770002")
	require.NoError(t, err)
	assert.False(t, other.HasCoordinates(), "no address, nothing to geocode")
}
