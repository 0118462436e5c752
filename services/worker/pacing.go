package worker

import (
	"math/rand"
	"time"

	"mkessler/rentalintel/config"
)

// PassType identifies which pipeline pass is asking to pause between
// requests. Each pass has its own delay profile.
type PassType int

const (
	PassListing PassType = iota
	PassEnrichment
	PassUpdate
	PassGeocode
)

// Pacer spaces out requests against the source site.
type Pacer interface {
	Wait(pass PassType)
}

// RandomPacer sleeps a random duration inside the configured window for
// each pass type, so request timing does not look mechanical.
type RandomPacer struct {
	listingMin, listingMax time.Duration
	enrichMin, enrichMax   time.Duration
	updateMin, updateMax   time.Duration
	geocodeDelay           time.Duration
}

// NewRandomPacer builds a pacer from the configured delay windows.
func NewRandomPacer(cfg config.Config) *RandomPacer {
	return &RandomPacer{
		listingMin:   cfg.ListingDelayMin,
		listingMax:   cfg.ListingDelayMax,
		enrichMin:    cfg.EnrichDelayMin,
		enrichMax:    cfg.EnrichDelayMax,
		updateMin:    cfg.UpdateDelayMin,
		updateMax:    cfg.UpdateDelayMax,
		geocodeDelay: cfg.GeocodeDelay,
	}
}

func (p *RandomPacer) Wait(pass PassType) {
	switch pass {
	case PassListing:
		sleepBetween(p.listingMin, p.listingMax)
	case PassEnrichment:
		sleepBetween(p.enrichMin, p.enrichMax)
	case PassUpdate:
		sleepBetween(p.updateMin, p.updateMax)
	case PassGeocode:
		time.Sleep(p.geocodeDelay)
	}
}

func sleepBetween(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}

// NopPacer never waits. Used in tests.
type NopPacer struct{}

func (NopPacer) Wait(PassType) {}
