package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Name() string { return "mock" }

func (m *mockFetcher) Fetch(url string) (*scrape.PageData, error) {
	args := m.Called(url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.PageData), args.Error(1)
}

func (m *mockFetcher) Close() error { return nil }

type collectingWriter struct {
	listings []*scrape.Listing
}

func (c *collectingWriter) Name() string { return "collect" }

func (c *collectingWriter) Write(l *scrape.Listing) error {
	c.listings = append(c.listings, l)
	return nil
}

func (c *collectingWriter) Close() error { return nil }

func fetched(html string) *scrape.PageData {
	return &scrape.PageData{StatusCode: 200, HTML: html}
}

func searchPage(next string, hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a href=%q>listing</a></li>`, h)
	}
	b.WriteString("</ul>")
	if next != "" {
		fmt.Fprintf(&b, `<a href=%q>Next</a>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func detailPage(title string) string {
	return fmt.Sprintf(
		`<html><body><div class="c121f914"><h1 class="aea614fd">%s</h1></div></body></html>`,
		title)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func collectEvents(s *Scraper) []scrape.Event {
	var evs []scrape.Event
	for ev := range s.Events() {
		evs = append(evs, ev)
	}
	return evs
}

func TestRunWalksPagesAndScrapesDetails(t *testing.T) {
	search1 := "https://www.zameen.com/Homes/Lahore-1-1.html"
	search2 := "https://www.zameen.com/Homes/Lahore-1-2.html"
	a := "https://www.zameen.com/Property/a-1.html"
	b := "https://www.zameen.com/Property/b-2.html"
	c := "https://www.zameen.com/Property/c-3.html"

	f := new(mockFetcher)
	f.On("Fetch", search1).Return(fetched(searchPage(search2, a, "/Property/b-2.html")), nil).Once()
	// Page two repeats a listing from page one.
	f.On("Fetch", search2).Return(fetched(searchPage("", a, c)), nil).Once()
	f.On("Fetch", a).Return(fetched(detailPage("House A")), nil).Once()
	f.On("Fetch", b).Return(fetched(detailPage("House B")), nil).Once()
	f.On("Fetch", c).Return(fetched(detailPage("House C")), nil).Once()

	w := &collectingWriter{}
	s := New(&Config{SearchURL: search1, MaxPages: 2, MaxDetails: 10}, f, []scrape.ListingWriter{w}, testLogger())

	listings, err := s.Run()
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, "House A", listings[0].Title)
	assert.Equal(t, "House B", listings[1].Title)
	assert.Equal(t, "House C", listings[2].Title)
	for _, l := range listings {
		assert.Equal(t, "lahore", l.City)
	}
	assert.Len(t, w.listings, 3)
	f.AssertExpectations(t)

	events := collectEvents(s)
	require.NotEmpty(t, events)
	assert.Equal(t, scrape.EventCrawlStarted, events[0].Type)
	last := events[len(events)-1]
	assert.Equal(t, scrape.EventCrawlFinished, last.Type)
	require.NotNil(t, last.Stats)
	assert.Equal(t, 2, last.Stats.PagesFetched)
	assert.Equal(t, 3, last.Stats.LinksFound)
	assert.Equal(t, 3, last.Stats.ListingsExtracted)
	assert.Equal(t, 0, last.Stats.DetailsErrored)

	var pageDone int
	for _, ev := range events {
		if ev.Type == scrape.EventPageDone {
			pageDone++
			assert.Equal(t, "found 2 candidate detail links", ev.Message)
		}
	}
	assert.Equal(t, 2, pageDone)
}

func TestRunHonorsMaxDetails(t *testing.T) {
	search := "https://www.zameen.com/Homes/Karachi-2-1.html"

	hrefs := make([]string, 10)
	for i := range hrefs {
		hrefs[i] = fmt.Sprintf("https://www.zameen.com/Property/p%d-%d.html", i, i+1)
	}

	f := new(mockFetcher)
	f.On("Fetch", search).Return(fetched(searchPage("", hrefs...)), nil).Once()
	for _, h := range hrefs[:5] {
		f.On("Fetch", h).Return(fetched(detailPage("x")), nil).Once()
	}

	s := New(&Config{SearchURL: search, MaxPages: 1, MaxDetails: 5}, f, nil, testLogger())

	listings, err := s.Run()
	require.NoError(t, err)
	assert.Len(t, listings, 5)
	f.AssertExpectations(t)
	f.AssertNumberOfCalls(t, "Fetch", 6) // one search page plus five details
}

func TestRunAbortsWhenBlocked(t *testing.T) {
	search := "https://www.zameen.com/Homes/Lahore-1-1.html"
	a := "https://www.zameen.com/Property/a-1.html"
	b := "https://www.zameen.com/Property/b-2.html"
	c := "https://www.zameen.com/Property/c-3.html"

	f := new(mockFetcher)
	f.On("Fetch", search).Return(fetched(searchPage("", a, b, c)), nil).Once()
	f.On("Fetch", a).Return(fetched(detailPage("House A")), nil).Once()
	f.On("Fetch", b).Return(nil, fmt.Errorf("status 403 at %s: %w", b, scrape.ErrBlocked)).Once()

	s := New(&Config{SearchURL: search, MaxPages: 1, MaxDetails: 0}, f, nil, testLogger())

	listings, err := s.Run()
	require.ErrorIs(t, err, scrape.ErrBlocked)
	assert.Len(t, listings, 1) // what was scraped before the block survives
	f.AssertNumberOfCalls(t, "Fetch", 3)
}

func TestRunSkipsFailedDetailPages(t *testing.T) {
	search := "https://www.zameen.com/Homes/Lahore-1-1.html"
	a := "https://www.zameen.com/Property/a-1.html"
	b := "https://www.zameen.com/Property/b-2.html"
	c := "https://www.zameen.com/Property/c-3.html"

	f := new(mockFetcher)
	f.On("Fetch", search).Return(fetched(searchPage("", a, b, c)), nil).Once()
	f.On("Fetch", a).Return(fetched(detailPage("House A")), nil).Once()
	f.On("Fetch", b).Return(nil, errors.New("fetch: status 500: Internal Server Error")).Once()
	f.On("Fetch", c).Return(fetched(detailPage("House C")), nil).Once()

	s := New(&Config{SearchURL: search, MaxPages: 1, MaxDetails: 0}, f, nil, testLogger())

	listings, err := s.Run()
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "House A", listings[0].Title)
	assert.Equal(t, "House C", listings[1].Title)
	f.AssertExpectations(t)

	var errEvents []scrape.Event
	for _, ev := range collectEvents(s) {
		if ev.Type == scrape.EventDetailError {
			errEvents = append(errEvents, ev)
		}
	}
	require.Len(t, errEvents, 1)
	assert.Equal(t, b, errEvents[0].URL)
}

func TestRunFailsWhenSearchPageFails(t *testing.T) {
	search := "https://www.zameen.com/Homes/Lahore-1-1.html"

	f := new(mockFetcher)
	f.On("Fetch", search).Return(nil, errors.New("connection refused")).Once()

	s := New(&Config{SearchURL: search, MaxPages: 3, MaxDetails: 0}, f, nil, testLogger())

	listings, err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search page 1")
	assert.Nil(t, listings)
}

func TestRunStopsWithoutNextPage(t *testing.T) {
	// No next anchor and no trailing page number to bump, so the walk ends
	// after the first page even though more pages are allowed.
	search := "https://www.zameen.com/Homes/Lahore_Houses/"
	a := "https://www.zameen.com/Property/a-1.html"

	f := new(mockFetcher)
	f.On("Fetch", search).Return(fetched(searchPage("", a)), nil).Once()
	f.On("Fetch", a).Return(fetched(detailPage("House A")), nil).Once()

	s := New(&Config{SearchURL: search, MaxPages: 3, MaxDetails: 0}, f, nil, testLogger())

	listings, err := s.Run()
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestRunStopsEarly(t *testing.T) {
	f := new(mockFetcher)

	s := New(&Config{SearchURL: "https://www.zameen.com/Homes/Lahore-1-1.html", MaxPages: 3}, f, nil, testLogger())
	s.Stop()

	listings, err := s.Run()
	require.NoError(t, err)
	assert.Empty(t, listings)
	f.AssertNumberOfCalls(t, "Fetch", 0)
}

func TestCityFromSearchURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.zameen.com/Homes/Islamabad-3-1.html", "islamabad"},
		{"https://www.zameen.com/Homes/Lahore-1-1.html?sort=price_asc", "lahore"},
		{"https://www.zameen.com/Homes/Lahore-1-2.html#results", "lahore"},
		{"https://www.zameen.com/Homes/Rawalpindi-41-1.HTML", "rawalpindi"},
		{"https://www.zameen.com/Homes/Karachi/", "karachi"},
		{"Multan-5-1.html", "multan"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cityFromSearchURL(tc.url), "url %q", tc.url)
	}
}
