// Package worker runs the scrape, backfill, update and geocode passes on
// a schedule and keeps the record store, event streams and production
// mirror in step with the source site.
package worker

import (
	"context"
	"errors"
	"time"

	"mkessler/rentalintel/internal/etl"
	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/internal/scraper"
	"mkessler/rentalintel/logger"
	"mkessler/rentalintel/services/geocoder"
	"mkessler/rentalintel/services/mirror"
	"mkessler/rentalintel/services/publisher"
	"mkessler/rentalintel/services/store"
)

// Worker drives the pipeline passes. Publisher, geocoder and mirror are
// optional: a nil collaborator disables that side effect.
type Worker struct {
	source  scraper.Source
	store   *store.Store
	cleaner *etl.Cleaner
	geo     geocoder.Geocoder
	sync    *mirror.Client
	pub     publisher.Publisher
	pacer   Pacer
	log     *logger.Logger
}

// New creates a worker wired to its collaborators.
func New(source scraper.Source, st *store.Store, geo geocoder.Geocoder, sync *mirror.Client, pub publisher.Publisher, pacer Pacer) *Worker {
	if pacer == nil {
		pacer = NopPacer{}
	}
	return &Worker{
		source:  source,
		store:   st,
		cleaner: etl.NewCleaner(),
		geo:     geo,
		sync:    sync,
		pub:     pub,
		pacer:   pacer,
		log:     logger.ForWorker(),
	}
}

// Start runs a full cycle immediately, then repeats on the given interval
// until the context is cancelled.
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	w.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping")
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle runs all passes in pipeline order.
func (w *Worker) RunCycle(ctx context.Context) {
	started := time.Now()
	w.log.Info().Msg("Starting pipeline cycle")

	if err := w.ScrapePass(ctx); err != nil {
		w.log.Error().Err(err).Msg("Scrape pass failed")
	}
	if err := w.BackfillPass(ctx); err != nil {
		w.log.Error().Err(err).Msg("Backfill pass failed")
	}
	if err := w.UpdatePass(ctx); err != nil {
		w.log.Error().Err(err).Msg("Update pass failed")
	}
	if err := w.GeocodePass(ctx); err != nil {
		w.log.Error().Err(err).Msg("Geocode pass failed")
	}

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Failed to trim event streams")
		}
	}

	w.log.Info().Dur("elapsed", time.Since(started)).Msg("Pipeline cycle finished")
}

// ScrapePass fetches the search index, cleans the batch, enriches each
// listing from its detail page, and upserts the results. A listing whose
// detail fetch fails is still stored from its summary fields.
func (w *Worker) ScrapePass(ctx context.Context) error {
	raw, err := w.source.FetchSearchResults()
	if err != nil {
		return err
	}

	cleaned, stats := w.cleaner.Clean(raw)
	w.log.Info().
		Int("found", stats.Input).
		Int("kept", stats.Output).
		Msg("Search results cleaned")

	var created, updated, skipped, failed int
	for i := range cleaned {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := cleaned[i]

		w.pacer.Wait(PassListing)
		details, err := w.source.FetchDetails(rec.URL)
		switch {
		case errors.Is(err, scraper.ErrMissingAddress):
			// Partial details are still worth keeping.
		case err != nil:
			failed++
			w.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Detail fetch failed")
			details = nil
		}
		if details != nil && !details.Empty() {
			details.Apply(&rec)
		}
		rec.DataQuality = etl.QualityScore(&rec)

		dup, err := w.store.FindDuplicate(rec.Title, rec.Location, rec.Price, rec.ExternalID)
		if err != nil {
			return err
		}
		if dup != nil {
			skipped++
			w.log.Debug().
				Str("external_id", rec.ExternalID).
				Str("duplicate_of", dup.ExternalID).
				Msg("Skipping repost")
			continue
		}

		existing, err := w.store.GetByExternalID(rec.ExternalID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := w.store.Create(&rec); err != nil {
				return err
			}
			created++
			w.geocodeNew(ctx, &rec)
			w.publish(publisher.EventCreated, &rec, nil)
			continue
		}

		changed := existing.Merge(&rec)
		if len(changed) == 0 {
			continue
		}
		existing.DataQuality = etl.QualityScore(existing)
		if err := w.store.Update(existing); err != nil {
			return err
		}
		updated++
		w.publish(publisher.EventUpdated, existing, changed)
	}

	w.log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Scrape pass finished")
	return nil
}

// BackfillPass revisits stored listings that never got their detail fields,
// usually because the detail fetch failed during the scrape pass.
func (w *Worker) BackfillPass(ctx context.Context) error {
	records, err := w.store.List(store.Filter{MissingBedrooms: true})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	w.log.Info().Int("count", len(records)).Msg("Backfilling detail fields")

	for i := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := &records[i]

		w.pacer.Wait(PassEnrichment)
		if _, err := w.enrichFromDetailPage(rec); err != nil {
			w.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Backfill fetch failed")
		}
	}
	return nil
}

// UpdatePass re-reads every active listing, deactivates the ones whose
// pages are gone, and pushes the changes to the production mirror.
func (w *Worker) UpdatePass(ctx context.Context) error {
	records, err := w.store.Active()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	w.log.Info().Int("count", len(records)).Msg("Refreshing active listings")

	var changedRecs []*listing.Record
	var removedIDs []string
	for i := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := &records[i]

		w.pacer.Wait(PassUpdate)
		outcome, err := w.enrichFromDetailPage(rec)
		if err != nil {
			w.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Refresh fetch failed")
			continue
		}
		switch outcome {
		case outcomeRemoved:
			removedIDs = append(removedIDs, rec.ExternalID)
		case outcomeChanged:
			changedRecs = append(changedRecs, rec)
		}
	}

	// Production sync failures are logged, never fatal: the next cycle
	// retries with the then-current state.
	if w.sync != nil {
		if _, err := w.sync.Push(changedRecs); err != nil {
			w.log.Error().Err(err).Msg("Production push failed")
		}
		if _, err := w.sync.Deactivate(removedIDs); err != nil {
			w.log.Error().Err(err).Msg("Production deactivation failed")
		}
	}

	w.log.Info().
		Int("changed", len(changedRecs)).
		Int("removed", len(removedIDs)).
		Msg("Update pass finished")
	return nil
}

// GeocodePass resolves coordinates for listings that have an address but
// no location fix yet.
func (w *Worker) GeocodePass(ctx context.Context) error {
	if w.geo == nil {
		return nil
	}
	records, err := w.store.List(store.Filter{NeedsGeocode: true})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	w.log.Info().Int("count", len(records)).Msg("Geocoding addresses")

	var resolved int
	for i := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := &records[i]

		w.pacer.Wait(PassGeocode)
		res, err := w.geo.Geocode(ctx, *rec.Address)
		if err != nil {
			w.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Geocoding failed")
			continue
		}
		if res == nil {
			continue
		}

		rec.Latitude = &res.Latitude
		rec.Longitude = &res.Longitude
		rec.DataQuality = etl.QualityScore(rec)
		if err := w.store.Update(rec); err != nil {
			return err
		}
		resolved++
	}

	w.log.Info().Int("resolved", resolved).Msg("Geocode pass finished")
	return nil
}

type enrichOutcome int

const (
	outcomeUnchanged enrichOutcome = iota
	outcomeChanged
	outcomeRemoved
)

// enrichFromDetailPage re-fetches one listing's detail page and applies
// the result. An empty extraction means the page is gone: the record is
// deactivated but retained for analytics.
func (w *Worker) enrichFromDetailPage(rec *listing.Record) (enrichOutcome, error) {
	details, err := w.source.FetchDetails(rec.URL)
	if err != nil && !errors.Is(err, scraper.ErrMissingAddress) {
		return outcomeUnchanged, err
	}

	if details == nil || details.Empty() {
		if err := w.store.SetActive(rec.ExternalID, false); err != nil {
			return outcomeUnchanged, err
		}
		rec.Active = false
		w.publish(publisher.EventDeactivated, rec, nil)
		w.log.Info().Str("external_id", rec.ExternalID).Msg("Listing page gone, deactivated")
		return outcomeRemoved, nil
	}

	changed := details.Apply(rec)
	if len(changed) == 0 {
		return outcomeUnchanged, nil
	}
	rec.DataQuality = etl.QualityScore(rec)
	if err := w.store.Update(rec); err != nil {
		return outcomeUnchanged, err
	}
	w.publish(publisher.EventUpdated, rec, changed)
	return outcomeChanged, nil
}

// geocodeNew resolves coordinates for a freshly created listing when an
// address came with the detail page.
func (w *Worker) geocodeNew(ctx context.Context, rec *listing.Record) {
	if w.geo == nil || rec.Address == nil {
		return
	}
	res, err := w.geo.Geocode(ctx, *rec.Address)
	if err != nil {
		w.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Geocoding failed")
		return
	}
	if res == nil {
		return
	}
	if err := w.store.SetCoordinates(rec.ExternalID, res.Latitude, res.Longitude); err != nil {
		w.log.Error().Err(err).Str("external_id", rec.ExternalID).Msg("Storing coordinates failed")
		return
	}
	rec.Latitude = &res.Latitude
	rec.Longitude = &res.Longitude
	rec.DataQuality = etl.QualityScore(rec)
	if err := w.store.Update(rec); err != nil {
		w.log.Error().Err(err).Str("external_id", rec.ExternalID).Msg("Updating quality failed")
	}
}

func (w *Worker) publish(eventType string, rec *listing.Record, changed []string) {
	if w.pub == nil {
		return
	}
	msg, err := publisher.Encode(eventType, rec, changed)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to encode event")
		return
	}
	if err := w.pub.Publish(eventType, msg); err != nil {
		w.log.Error().Err(err).Str("type", eventType).Msg("Failed to publish event")
	}
}
