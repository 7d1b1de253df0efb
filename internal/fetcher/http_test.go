package fetcher

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

func TestFetchSuccess(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{Timeout: 5 * time.Second})
	defer f.Close()

	page, err := f.Fetch(srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.HTML, "<h1>ok</h1>")
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Greater(t, page.Size, 0)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, defaultAcceptLanguage, gotLang)
}

func TestFetchForbiddenIsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{Timeout: 5 * time.Second})
	defer f.Close()

	page, err := f.Fetch(srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, scrape.ErrBlocked)
	assert.Equal(t, http.StatusForbidden, page.StatusCode)
}

func TestFetchChallengeBodyIsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Cloudflare needs you to solve a CAPTCHA</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{Timeout: 5 * time.Second})
	defer f.Close()

	_, err := f.Fetch(srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, scrape.ErrBlocked)
}

func TestFetchNotFoundIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{Timeout: 5 * time.Second})
	defer f.Close()

	page, err := f.Fetch(srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, scrape.ErrBlocked)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
}
