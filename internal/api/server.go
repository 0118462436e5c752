// Package api exposes the record store and analytics over HTTP. It also
// serves the bulk endpoints the production mirror pushes to, so a local
// instance can act as the receiving side of a sync.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mkessler/rentalintel/internal/analytics"
	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/logger"
	"mkessler/rentalintel/services/store"
)

// Server wraps the HTTP handlers around a record store.
type Server struct {
	store  *store.Store
	router *mux.Router
	log    *logger.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(st *store.Store) *Server {
	s := &Server{
		store:  st,
		router: mux.NewRouter(),
		log:    logger.ForAPI(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/listings", s.handleListListings).Methods(http.MethodGet)
	s.router.HandleFunc("/api/analytics", s.handleAnalytics).Methods(http.MethodGet)
	s.router.HandleFunc("/api/listings/bulk_create_listings", s.handleBulkCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/listings/mark_inactive", s.handleMarkInactive).Methods(http.MethodPost)
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts serving on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("API server listening")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.store.List(f)
	if err != nil {
		s.log.Error().Err(err).Msg("Listing query failed")
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if records == nil {
		records = []listing.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(records),
		"listings": records,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Active()
	if err != nil {
		s.log.Error().Err(err).Msg("Analytics query failed")
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	s.writeJSON(w, http.StatusOK, analytics.BuildReport(records))
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var records []listing.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var created, updated int
	for i := range records {
		wasCreated, err := s.store.Upsert(&records[i])
		if err != nil {
			s.log.Error().Err(err).Str("external_id", records[i].ExternalID).Msg("Upsert failed")
			s.writeError(w, http.StatusInternalServerError, "storage failed")
			return
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	s.log.Info().Int("created", created).Int("updated", updated).Msg("Bulk upload applied")
	s.writeJSON(w, http.StatusOK, map[string]int{
		"created": created,
		"updated": updated,
	})
}

func (s *Server) handleMarkInactive(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ExternalIDs []string `json:"external_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.store.MarkInactive(payload.ExternalIDs)
	if err != nil {
		s.log.Error().Err(err).Msg("Deactivation failed")
		s.writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"marked_inactive": n})
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	var f store.Filter
	q := r.URL.Query()

	var err error
	if f.MinPrice, err = intParam(q.Get("min_price")); err != nil {
		return f, err
	}
	if f.MaxPrice, err = intParam(q.Get("max_price")); err != nil {
		return f, err
	}
	if f.Bedrooms, err = intParam(q.Get("bedrooms")); err != nil {
		return f, err
	}
	if v := q.Get("bathrooms"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, err
		}
		f.Bathrooms = &b
	}
	if v := q.Get("cats"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Cats = &b
	}
	if v := q.Get("dogs"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Dogs = &b
	}
	f.Location = q.Get("location")
	f.Laundry = q.Get("laundry")
	f.Parking = q.Get("parking")
	if v := q.Get("include_inactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.IncludeInactive = b
	}
	return f, nil
}

func intParam(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
