package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mkessler/rentalintel/internal/listing"
)

// Store wraps SQLite operations over the listings table
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode lets the analytics reader overlap an ingestion cycle
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		external_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		price INTEGER NOT NULL,
		location TEXT NOT NULL,
		bedrooms INTEGER,
		bathrooms REAL,
		sqft INTEGER,
		address TEXT,
		cats_allowed INTEGER NOT NULL DEFAULT 0,
		dogs_allowed INTEGER NOT NULL DEFAULT 0,
		laundry_type TEXT,
		parking TEXT,
		extra_amenities TEXT,
		latitude REAL,
		longitude REAL,
		scraped_at TIMESTAMP NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		data_quality INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_active ON listings(active);
	CREATE INDEX IF NOT EXISTS idx_location ON listings(location);
	CREATE INDEX IF NOT EXISTS idx_scraped ON listings(scraped_at);
	CREATE INDEX IF NOT EXISTS idx_price ON listings(price);
	`

	_, err := s.db.Exec(schema)
	return err
}

const listingColumns = `external_id, url, title, price, location,
	bedrooms, bathrooms, sqft, address,
	cats_allowed, dogs_allowed, laundry_type, parking, extra_amenities,
	latitude, longitude, scraped_at, active, data_quality`

// GetByExternalID retrieves a record by its external identifier, returning
// nil when absent.
func (s *Store) GetByExternalID(externalID string) (*listing.Record, error) {
	row := s.db.QueryRow(
		`SELECT `+listingColumns+` FROM listings WHERE external_id = ?`,
		externalID,
	)
	rec, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Create inserts a new record
func (s *Store) Create(rec *listing.Record) error {
	_, err := s.db.Exec(`
	INSERT INTO listings (`+listingColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listingArgs(rec)...,
	)
	return err
}

// Update overwrites an existing record's fields
func (s *Store) Update(rec *listing.Record) error {
	_, err := s.db.Exec(`
	UPDATE listings SET
		url = ?, title = ?, price = ?, location = ?,
		bedrooms = ?, bathrooms = ?, sqft = ?, address = ?,
		cats_allowed = ?, dogs_allowed = ?, laundry_type = ?, parking = ?, extra_amenities = ?,
		latitude = ?, longitude = ?, scraped_at = ?, active = ?, data_quality = ?
	WHERE external_id = ?`,
		rec.URL, rec.Title, rec.Price, rec.Location,
		rec.Bedrooms, rec.Bathrooms, rec.Sqft, rec.Address,
		rec.CatsAllowed, rec.DogsAllowed, rec.Laundry, rec.Parking, rec.ExtraAmenities,
		rec.Latitude, rec.Longitude, rec.ScrapedAt, rec.Active, rec.DataQuality,
		rec.ExternalID,
	)
	return err
}

// Upsert inserts or overwrites a record by external identifier and reports
// whether a new row was created.
func (s *Store) Upsert(rec *listing.Record) (bool, error) {
	existing, err := s.GetByExternalID(rec.ExternalID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, s.Create(rec)
	}
	return false, s.Update(rec)
}

// FindDuplicate looks for a record with the same title, location and price
// stored under a different external identifier.
func (s *Store) FindDuplicate(title, location string, price int, excludeExternalID string) (*listing.Record, error) {
	row := s.db.QueryRow(
		`SELECT `+listingColumns+` FROM listings
		WHERE title = ? AND location = ? AND price = ? AND external_id != ?
		LIMIT 1`,
		title, location, price, excludeExternalID,
	)
	rec, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Active returns every active record, newest capture first
func (s *Store) Active() ([]listing.Record, error) {
	return s.List(Filter{})
}

// List returns the records matching the filter, newest capture first.
func (s *Store) List(f Filter) ([]listing.Record, error) {
	var conds []string
	var args []interface{}

	if !f.IncludeInactive {
		conds = append(conds, "active = 1")
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Location != "" {
		conds = append(conds, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Bedrooms != nil {
		conds = append(conds, "bedrooms = ?")
		args = append(args, *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		conds = append(conds, "bathrooms = ?")
		args = append(args, *f.Bathrooms)
	}
	if f.Cats != nil {
		conds = append(conds, "cats_allowed = ?")
		args = append(args, *f.Cats)
	}
	if f.Dogs != nil {
		conds = append(conds, "dogs_allowed = ?")
		args = append(args, *f.Dogs)
	}
	if f.Laundry != "" {
		conds = append(conds, "laundry_type = ?")
		args = append(args, f.Laundry)
	}
	if f.Parking != "" {
		conds = append(conds, "parking = ?")
		args = append(args, f.Parking)
	}
	if f.MissingBedrooms {
		conds = append(conds, "bedrooms IS NULL")
	}
	if f.NeedsGeocode {
		conds = append(conds, "address IS NOT NULL AND latitude IS NULL")
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scraped_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []listing.Record
	for rows.Next() {
		rec, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// MarkInactive flags the given external identifiers inactive and returns how
// many rows changed. Records are never deleted.
func (s *Store) MarkInactive(externalIDs []string) (int, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(externalIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}

	res, err := s.db.Exec(
		`UPDATE listings SET active = 0 WHERE external_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SetActive flips one record's active flag
func (s *Store) SetActive(externalID string, active bool) error {
	_, err := s.db.Exec(
		`UPDATE listings SET active = ? WHERE external_id = ?`,
		active, externalID,
	)
	return err
}

// SetCoordinates stores geocoding results for a record
func (s *Store) SetCoordinates(externalID string, lat, lon float64) error {
	_, err := s.db.Exec(
		`UPDATE listings SET latitude = ?, longitude = ? WHERE external_id = ?`,
		lat, lon, externalID,
	)
	return err
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanListing(row scannable) (*listing.Record, error) {
	var rec listing.Record
	var bedrooms sql.NullInt64
	var bathrooms sql.NullFloat64
	var sqft sql.NullInt64
	var address sql.NullString
	var laundry sql.NullString
	var parking sql.NullString
	var amenities sql.NullString
	var latitude sql.NullFloat64
	var longitude sql.NullFloat64
	var scrapedAt time.Time

	err := row.Scan(
		&rec.ExternalID, &rec.URL, &rec.Title, &rec.Price, &rec.Location,
		&bedrooms, &bathrooms, &sqft, &address,
		&rec.CatsAllowed, &rec.DogsAllowed, &laundry, &parking, &amenities,
		&latitude, &longitude, &scrapedAt, &rec.Active, &rec.DataQuality,
	)
	if err != nil {
		return nil, err
	}

	if bedrooms.Valid {
		rec.Bedrooms = listing.Ptr(int(bedrooms.Int64))
	}
	if bathrooms.Valid {
		rec.Bathrooms = listing.Ptr(bathrooms.Float64)
	}
	if sqft.Valid {
		rec.Sqft = listing.Ptr(int(sqft.Int64))
	}
	if address.Valid {
		rec.Address = listing.Ptr(address.String)
	}
	if laundry.Valid {
		rec.Laundry = listing.Ptr(laundry.String)
	}
	if parking.Valid {
		rec.Parking = listing.Ptr(parking.String)
	}
	if amenities.Valid {
		rec.ExtraAmenities = listing.Ptr(amenities.String)
	}
	if latitude.Valid {
		rec.Latitude = listing.Ptr(latitude.Float64)
	}
	if longitude.Valid {
		rec.Longitude = listing.Ptr(longitude.Float64)
	}
	rec.ScrapedAt = scrapedAt

	return &rec, nil
}

func listingArgs(rec *listing.Record) []interface{} {
	return []interface{}{
		rec.ExternalID, rec.URL, rec.Title, rec.Price, rec.Location,
		rec.Bedrooms, rec.Bathrooms, rec.Sqft, rec.Address,
		rec.CatsAllowed, rec.DogsAllowed, rec.Laundry, rec.Parking, rec.ExtraAmenities,
		rec.Latitude, rec.Longitude, rec.ScrapedAt, rec.Active, rec.DataQuality,
	}
}
