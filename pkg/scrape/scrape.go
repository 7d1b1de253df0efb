// Package scrape defines the shared vocabulary for the Zameen listing
// scraper: the page and listing data types, the progress event stream, and
// the interfaces the fetcher and output sinks implement. Packages under
// internal/ depend on this one, never on each other's concrete types.
package scrape

import (
	"errors"
	"time"
)

// ErrBlocked marks a response that indicates the site is refusing us: an
// HTTP 403, or a challenge page whose body mentions both "captcha" and
// "cloudflare". It aborts the whole crawl; test for it with errors.Is.
var ErrBlocked = errors.New("access blocked")

// ---------- Core Data Types ----------

// PageData represents a fetched page and the HTTP facts around it.
type PageData struct {
	URL           string
	FinalURL      string
	StatusCode    int
	HTML          string
	ContentType   string
	FetchedAt     time.Time
	FetchDuration time.Duration
	Size          int
}

// ---------- Event Types ----------

// Event is a real-time progress notification emitted during a run.
type Event struct {
	Type    EventType
	URL     string
	Page    int // 1-based result page counter
	Index   int // 1-based detail counter
	Total   int // detail count after truncation
	Listing *Listing
	Error   error
	Stats   *Stats
	Message string
}

// EventType identifies the kind of event.
type EventType int

const (
	EventCrawlStarted EventType = iota
	EventPageStarted
	EventPageDone
	EventDetailStarted
	EventDetailDone
	EventDetailError
	EventCrawlFinished
)

// Stats holds running counters for a crawl.
type Stats struct {
	PagesFetched      int
	LinksFound        int
	DetailsFetched    int
	DetailsErrored    int
	ListingsExtracted int
	Elapsed           time.Duration
}

// ---------- Component Interfaces ----------

// Fetcher defines how pages are retrieved.
type Fetcher interface {
	// Name returns a human-readable identifier for this fetcher.
	Name() string

	// Fetch retrieves the page at the given URL. A blocking response
	// returns an error wrapping ErrBlocked.
	Fetch(url string) (*PageData, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// ListingWriter defines how extracted listings are persisted.
type ListingWriter interface {
	// Name returns a human-readable identifier for this sink.
	Name() string

	// Write persists a single listing (called incrementally).
	Write(l *Listing) error

	// Close flushes and releases the sink.
	Close() error
}
