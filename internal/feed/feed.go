// Package feed downloads and decodes the USGS earthquake summary feed.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/san-kum/quakeplay/internal/quake"
)

// DefaultURL is the USGS "all earthquakes, past 30 days" summary feed.
const DefaultURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_month.geojson"

var (
	// ErrFetch indicates the feed could not be downloaded.
	ErrFetch = errors.New("feed: fetch failed")

	// ErrMalformed indicates the body was not a GeoJSON feature collection.
	ErrMalformed = errors.New("feed: malformed document")
)

type Options struct {
	URL        string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

func DefaultOptions() Options {
	return Options{
		URL:        DefaultURL,
		Timeout:    30 * time.Second,
		RetryCount: 0,
		RetryWait:  2 * time.Second,
	}
}

// Result is one successful download.
type Result struct {
	Events    *quake.Collection
	Raw       []byte
	FetchedAt time.Time
	URL       string
}

type Client struct {
	http *resty.Client
	url  string
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	c := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetHeader("Accept", "application/geo+json, application/json").
		SetHeader("User-Agent", "quakeplay").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: c, url: opts.URL}
}

func (c *Client) URL() string { return c.url }

// Fetch downloads and parses the feed once. On any failure it returns an
// error and no events; callers fall back to an empty collection.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, c.url, resp.Status())
	}

	body := resp.Body()
	events, err := Parse(body)
	if err != nil {
		return nil, err
	}
	log.Printf("fetched %d events from %s (%d skipped)", events.Len(), c.url, events.Skipped())
	return &Result{Events: events, Raw: body, FetchedAt: time.Now(), URL: c.url}, nil
}

const collectionType = "FeatureCollection"

// document is the feed envelope. Features stay raw so each one is decoded
// and skipped on its own.
type document struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Parse decodes a feed document into a collection. The document must be a
// FeatureCollection with a features array; bad features are skipped.
func Parse(data []byte) (*quake.Collection, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Type != collectionType {
		return nil, fmt.Errorf("%w: type %q, want FeatureCollection", ErrMalformed, doc.Type)
	}
	if doc.Features == nil {
		return nil, fmt.Errorf("%w: no features array", ErrMalformed)
	}
	return quake.LoadRaw(doc.Features), nil
}

// LoadFile parses a feed document saved on disk.
func LoadFile(path string) (*quake.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
