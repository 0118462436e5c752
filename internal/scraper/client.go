package scraper

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mkessler/rentalintel/helpers"
	"mkessler/rentalintel/internal/listing"
	"mkessler/rentalintel/services/cache"
	apperrors "mkessler/rentalintel/pkg/errors"
)

// Source is the page-fetching collaborator the worker consumes.
type Source interface {
	// FetchSearchResults retrieves listing summaries from the board index
	FetchSearchResults() ([]listing.Record, error)

	// FetchDetails retrieves and parses one listing detail page
	FetchDetails(url string) (*Details, error)
}

// Client fetches and parses pages from the target board. A 429 from the
// source sets a block key in the cache; further fetches short-circuit until
// the block expires.
type Client struct {
	searchURL string
	cacheKey  string
	cacheSvc  cache.CacheService
	blockTime time.Duration
	fetchFunc func(url string) (io.Reader, error)
}

// NewClient creates a scraper client for the configured search URL
func NewClient(searchURL string, blockTime time.Duration, cacheSvc cache.CacheService) *Client {
	return &Client{
		searchURL: searchURL,
		cacheKey:  "listing_rate_limited",
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		fetchFunc: helpers.FetchWithRandomHeaders,
	}
}

// FetchSearchResults fetches the board index and extracts listing summaries
func (c *Client) FetchSearchResults() ([]listing.Record, error) {
	body, err := c.fetchWithCache(c.searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(body)
	if err != nil {
		return nil, err
	}

	return ParseSearchResults(doc), nil
}

// FetchDetails fetches one listing detail page and extracts its attributes
func (c *Client) FetchDetails(url string) (*Details, error) {
	body, err := c.fetchWithCache(url)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(body)
	if err != nil {
		return nil, err
	}

	return ParseDetails(doc)
}

// fetchWithCache fetches a URL with rate-limit blocking
func (c *Client) fetchWithCache(url string) (io.Reader, error) {
	if c.cacheSvc != nil && c.cacheKey != "" {
		if _, err := c.cacheSvc.Get(c.cacheKey); err == nil {
			return nil, apperrors.NewRateLimit("fetch", c.blockTime)
		}
	}

	body, err := c.fetchFunc(url)
	if err != nil {
		if c.cacheSvc != nil && c.cacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			c.cacheSvc.Set(c.cacheKey, []byte(fmt.Sprintf("%d", c.blockTime/time.Second)), c.blockTime)
			return nil, apperrors.NewRateLimit("fetch", c.blockTime)
		}
		return nil, apperrors.NewNetwork("fetch", url, err)
	}

	return body, nil
}

// createDocument creates a goquery document from a reader
func (c *Client) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing("fetch", "failed to parse HTML document", err)
	}
	return doc, nil
}
