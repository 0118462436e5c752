// Package geocoder resolves street addresses to coordinates through the
// TomTom search API.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mkessler/rentalintel/logger"
	apperrors "mkessler/rentalintel/pkg/errors"
)

const defaultBaseURL = "https://api.tomtom.com"

// Result holds a resolved coordinate pair.
type Result struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves an address to coordinates. A nil Result with a nil
// error means the address could not be resolved; callers skip it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// TomTomGeocoder calls the TomTom geocode endpoint. An empty API key
// disables it: every lookup returns (nil, nil).
type TomTomGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewTomTom creates a geocoder using the given API key.
func NewTomTom(apiKey string) *TomTomGeocoder {
	return &TomTomGeocoder{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.ForGeocoder(),
	}
}

// NewTomTomWithBaseURL creates a geocoder pointed at a custom endpoint.
func NewTomTomWithBaseURL(apiKey, baseURL string) *TomTomGeocoder {
	g := NewTomTom(apiKey)
	g.baseURL = baseURL
	return g
}

// Enabled reports whether an API key is configured.
func (g *TomTomGeocoder) Enabled() bool {
	return g.apiKey != ""
}

type geocodeResponse struct {
	Results []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// Geocode looks up an address. Returns (nil, nil) when the geocoder is
// disabled or TomTom has no match for the address.
func (g *TomTomGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	if !g.Enabled() || address == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search/2/geocode/%s.json?key=%s&limit=1",
		g.baseURL, url.PathEscape(address), url.QueryEscape(g.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewGeocode("building request", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperrors.NewGeocode("calling geocode API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewGeocode(
			fmt.Sprintf("geocode API returned status %d", resp.StatusCode), nil)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewGeocode("decoding geocode response", err)
	}

	if len(parsed.Results) == 0 {
		g.log.Debug().Str("address", address).Msg("No geocode match")
		return nil, nil
	}

	pos := parsed.Results[0].Position
	return &Result{Latitude: pos.Lat, Longitude: pos.Lon}, nil
}
