// Package mirror pushes listing changes to the production API so the
// public site stays in step with the local record store.
package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/logger"
	apperrors "mkessler/rentalintel/pkg/errors"
)

// Client synchronizes records with the production API. An empty base URL
// disables it: Push and Deactivate become no-ops.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// PushResult reports how many records the production side created and updated.
type PushResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// NewClient creates a sync client for the given production base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger.ForSync(),
	}
}

// Enabled reports whether a production URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Push uploads created or changed records in one bulk call.
func (c *Client) Push(records []*listing.Record) (*PushResult, error) {
	if !c.Enabled() || len(records) == 0 {
		return &PushResult{}, nil
	}

	var result PushResult
	if err := c.post("/api/listings/bulk_create_listings", records, &result); err != nil {
		return nil, err
	}

	c.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Pushed records to production")
	return &result, nil
}

// Deactivate tells the production side which listings disappeared.
// Returns the number of records it marked inactive.
func (c *Client) Deactivate(externalIDs []string) (int, error) {
	if !c.Enabled() || len(externalIDs) == 0 {
		return 0, nil
	}

	payload := map[string][]string{"external_ids": externalIDs}
	var result struct {
		MarkedInactive int `json:"marked_inactive"`
	}
	if err := c.post("/api/listings/mark_inactive", payload, &result); err != nil {
		return 0, err
	}

	c.log.Info().Int("count", result.MarkedInactive).Msg("Deactivated records on production")
	return result.MarkedInactive, nil
}

func (c *Client) post(path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewSync("encoding sync payload", err)
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return apperrors.NewSync("calling production API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apperrors.NewSync(
			fmt.Sprintf("production API returned status %d for %s", resp.StatusCode, path), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewSync("decoding production response", err)
	}
	return nil
}
