// Package fetcher retrieves Zameen pages over plain HTTP and recognizes the
// site's blocking responses.
package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

// Request defaults mirror a desktop Chrome session; Zameen serves full
// markup to this profile.
const (
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultTimeout        = 20 * time.Second
)

// Config holds the HTTP fetcher tunables.
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodySize    int
}

// HTTPFetcher fetches pages with Colly, one collector configured up front
// and cloned per request for clean state.
type HTTPFetcher struct {
	collector      *colly.Collector
	acceptLanguage string
}

// NewHTTPFetcher creates a Colly-based fetcher. Zero-value config fields
// fall back to the defaults above.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = defaultAcceptLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	c.UserAgent = cfg.UserAgent
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = cfg.MaxBodySize
	}

	return &HTTPFetcher{collector: c, acceptLanguage: cfg.AcceptLanguage}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves one page. A 403 status or a challenge body maps to
// scrape.ErrBlocked; any other non-success status is a plain error.
func (f *HTTPFetcher) Fetch(targetURL string) (*scrape.PageData, error) {
	start := time.Now()

	page := &scrape.PageData{
		URL:       targetURL,
		FinalURL:  targetURL,
		FetchedAt: start,
	}

	// Clone the collector for this individual fetch so we get clean state.
	// Callbacks do not survive Clone, so they are registered here.
	c := f.collector.Clone()

	lang := f.acceptLanguage
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", lang)
	})

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.HTML = string(r.Body)
		page.Size = len(r.Body)
		page.FinalURL = r.Request.URL.String()
		page.ContentType = r.Headers.Get("Content-Type")

		if isChallengeBody(page.HTML) {
			fetchErr = fmt.Errorf("challenge page at %s: %w", targetURL, scrape.ErrBlocked)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r == nil {
			fetchErr = fmt.Errorf("fetch %s: %w", targetURL, err)
			return
		}
		page.StatusCode = r.StatusCode
		if r.Request != nil {
			page.FinalURL = r.Request.URL.String()
		}
		if r.StatusCode == http.StatusForbidden {
			fetchErr = fmt.Errorf("status 403 at %s: %w", targetURL, scrape.ErrBlocked)
			return
		}
		fetchErr = fmt.Errorf("fetch %s: status %d: %w", targetURL, r.StatusCode, err)
	})

	err := c.Visit(targetURL)
	c.Wait()
	page.FetchDuration = time.Since(start)

	// OnError already classified anything that went over the wire.
	if fetchErr != nil {
		return page, fetchErr
	}
	if err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
		return page, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	return page, nil
}

func (f *HTTPFetcher) Close() error { return nil }

// isChallengeBody spots an interstitial served with a success status.
func isChallengeBody(body string) bool {
	low := strings.ToLower(body)
	return strings.Contains(low, "captcha") && strings.Contains(low, "cloudflare")
}
