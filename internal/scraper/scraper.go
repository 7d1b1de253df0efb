// Package scraper walks Zameen search result pages, collects listing detail
// links, and extracts one record per detail page. All requests run
// sequentially with a jittered pause between them.
package scraper

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Anayat-ullah1/zameen-scraper/internal/extractor"
	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

// Scraper is the engine that orchestrates fetching, extraction, and output.
type Scraper struct {
	config  *Config
	fetcher scrape.Fetcher
	writers []scrape.ListingWriter
	log     *logrus.Logger
	events  chan scrape.Event

	// Stats are only touched from Run's goroutine; Stop is the one
	// cross-goroutine entry point and guards its own flag.
	stats     scrape.Stats
	startTime time.Time

	stopped bool
	stopMu  sync.Mutex
}

// New creates a Scraper. Writers may be empty; listings are still returned
// from Run.
func New(config *Config, fetcher scrape.Fetcher, writers []scrape.ListingWriter, log *logrus.Logger) *Scraper {
	if log == nil {
		log = logrus.New()
	}
	return &Scraper{
		config:  config,
		fetcher: fetcher,
		writers: writers,
		log:     log,
		events:  make(chan scrape.Event, 1000),
	}
}

// Events returns the event channel for the renderer or other consumers.
// It is closed when Run returns.
func (s *Scraper) Events() <-chan scrape.Event {
	return s.events
}

// Run executes the whole session: walk search pages, then scrape each
// discovered detail page. It blocks until done and returns the extracted
// listings, including partial results when the run was cut short.
func (s *Scraper) Run() ([]*scrape.Listing, error) {
	s.startTime = time.Now()
	defer close(s.events)

	s.emit(scrape.Event{
		Type:    scrape.EventCrawlStarted,
		URL:     s.config.SearchURL,
		Message: fmt.Sprintf("Starting scrape of %s", s.config.SearchURL),
	})

	city := cityFromSearchURL(s.config.SearchURL)

	detailURLs, err := s.walkSearchPages()
	if err != nil {
		return nil, err
	}

	if s.config.MaxDetails > 0 && len(detailURLs) > s.config.MaxDetails {
		detailURLs = detailURLs[:s.config.MaxDetails]
	}

	listings, err := s.scrapeDetails(detailURLs, city)
	if err != nil {
		return listings, err
	}

	s.emit(scrape.Event{
		Type:    scrape.EventCrawlFinished,
		Stats:   s.snapshotStats(),
		Message: fmt.Sprintf("Done. %d pages walked, %d listings extracted.", s.stats.PagesFetched, s.stats.ListingsExtracted),
	})
	return listings, nil
}

// Stop signals the scraper to wind down after the in-flight request.
func (s *Scraper) Stop() {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	s.stopped = true
}

func (s *Scraper) isStopped() bool {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	return s.stopped
}

// walkSearchPages fetches up to MaxPages result pages and returns the
// detail links in discovery order, deduplicated across pages. Any failure
// here is fatal: without result pages there is nothing to scrape.
func (s *Scraper) walkSearchPages() ([]string, error) {
	var urls []string
	seen := make(map[string]bool)
	pageURL := s.config.SearchURL

	for page := 1; page <= s.config.MaxPages && pageURL != ""; page++ {
		if s.isStopped() {
			break
		}
		if page > 1 {
			s.wait()
		}

		s.emit(scrape.Event{Type: scrape.EventPageStarted, URL: pageURL, Page: page})

		pageData, err := s.fetcher.Fetch(pageURL)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageData.HTML))
		if err != nil {
			return nil, fmt.Errorf("parse search page %d: %w", page, err)
		}

		found := extractor.DiscoverListingURLs(doc)
		added := 0
		for _, u := range found {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
				added++
			}
		}
		s.stats.PagesFetched++
		s.stats.LinksFound += added

		s.emit(scrape.Event{
			Type:    scrape.EventPageDone,
			URL:     pageURL,
			Page:    page,
			Stats:   s.snapshotStats(),
			Message: fmt.Sprintf("found %d candidate detail links", len(found)),
		})
		s.log.WithFields(logrus.Fields{
			"page":   page,
			"links":  len(found),
			"unique": added,
		}).Debug("search page walked")

		base := pageData.FinalURL
		if base == "" {
			base = pageURL
		}
		pageURL = extractor.FindNextPage(doc, base)
	}

	return urls, nil
}

// scrapeDetails visits each detail URL in order. A single bad page is
// logged and skipped; a blocked response aborts the run and returns what
// was collected so far.
func (s *Scraper) scrapeDetails(urls []string, city string) ([]*scrape.Listing, error) {
	listings := make([]*scrape.Listing, 0, len(urls))

	for i, u := range urls {
		if s.isStopped() {
			break
		}
		if i > 0 {
			s.wait()
		}

		s.emit(scrape.Event{
			Type:  scrape.EventDetailStarted,
			URL:   u,
			Index: i + 1,
			Total: len(urls),
		})

		pageData, err := s.fetcher.Fetch(u)
		if err != nil {
			if errors.Is(err, scrape.ErrBlocked) {
				return listings, err
			}
			s.detailFailed(u, i+1, len(urls), err)
			continue
		}
		s.stats.DetailsFetched++

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageData.HTML))
		if err != nil {
			s.detailFailed(u, i+1, len(urls), fmt.Errorf("parse detail page: %w", err))
			continue
		}

		listing := extractor.ExtractListing(doc, u)
		listing.City = city

		for _, w := range s.writers {
			if err := w.Write(listing); err != nil {
				s.log.WithError(err).WithField("writer", w.Name()).Warn("failed to persist listing")
			}
		}

		listings = append(listings, listing)
		s.stats.ListingsExtracted++

		s.emit(scrape.Event{
			Type:    scrape.EventDetailDone,
			URL:     u,
			Index:   i + 1,
			Total:   len(urls),
			Listing: listing,
			Stats:   s.snapshotStats(),
		})
	}

	return listings, nil
}

func (s *Scraper) detailFailed(u string, index, total int, err error) {
	s.stats.DetailsErrored++
	s.log.WithError(err).WithField("url", u).Debug("detail page failed")
	s.emit(scrape.Event{
		Type:    scrape.EventDetailError,
		URL:     u,
		Index:   index,
		Total:   total,
		Error:   err,
		Message: fmt.Sprintf("Error scraping %s: %v", u, err),
	})
}

// wait pauses between requests: Delay plus a uniform offset in
// [-Jitter, +Jitter], floored at zero.
func (s *Scraper) wait() {
	d := s.config.Delay
	if s.config.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * float64(s.config.Jitter))
	}
	if d < 0 {
		d = 0
	}
	time.Sleep(d)
}

// emit sends an event without blocking. Drop it if the consumer lags;
// rendering never stalls the scrape.
func (s *Scraper) emit(event scrape.Event) {
	select {
	case s.events <- event:
	default:
	}
}

// snapshotStats returns a copy of the counters with Elapsed refreshed.
func (s *Scraper) snapshotStats() *scrape.Stats {
	statsCopy := s.stats
	statsCopy.Elapsed = time.Since(s.startTime)
	return &statsCopy
}

var htmlExtPattern = regexp.MustCompile(`(?i)\.html?$`)

// cityFromSearchURL pulls the city token out of a search URL, e.g.
// https://www.zameen.com/Homes/Lahore-1-1.html yields "lahore". The token
// is whatever precedes the first dash of the last path segment.
func cityFromSearchURL(searchURL string) string {
	s := searchURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = htmlExtPattern.ReplaceAllString(s, "")
	city, _, _ := strings.Cut(s, "-")
	return strings.ToLower(strings.TrimSpace(city))
}
