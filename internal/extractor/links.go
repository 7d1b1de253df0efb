package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// siteOrigin anchors root-relative hrefs; Zameen serves everything from the
// www host.
const siteOrigin = "https://www.zameen.com"

var (
	listingURLPattern = regexp.MustCompile(`^https?://(www\.)?zameen\.com/Property/|^/Property/`)
	pageSuffixPattern = regexp.MustCompile(`-(\d+)\.html$`)
)

// DiscoverListingURLs returns every property detail link on a result page,
// absolutized and de-duplicated in first-seen order.
func DiscoverListingURLs(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var urls []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || !listingURLPattern.MatchString(href) {
			return
		}
		abs := AbsoluteURL(href, "")
		if seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})

	return urls
}

// nextPageStrategies are tried in order; the first non-empty answer wins.
var nextPageStrategies = []func(doc *goquery.Document, currentURL string) string{
	nextFromLinkRel,
	nextFromAnchor,
	nextFromURLPattern,
}

// FindNextPage resolves the URL of the following result page, or "" when
// pagination ends. It never fetches anything.
func FindNextPage(doc *goquery.Document, currentURL string) string {
	for _, strategy := range nextPageStrategies {
		if next := strategy(doc, currentURL); next != "" {
			return next
		}
	}
	return ""
}

// nextFromLinkRel honors an explicit <link rel="next"> element. The first
// element whose rel tokens include "next" decides.
func nextFromLinkRel(doc *goquery.Document, currentURL string) string {
	next := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !relHasNextToken(rel) {
			return true
		}
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			next = AbsoluteURL(href, currentURL)
		}
		return false
	})
	return next
}

// nextFromAnchor picks the first anchor labelled "next". A non-empty
// aria-label takes precedence over the visible text.
func nextFromAnchor(doc *goquery.Document, currentURL string) string {
	next := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label, exists := s.Attr("aria-label")
		if !exists || label == "" {
			label = joinedText(s)
		}
		if !strings.Contains(strings.ToLower(label), "next") {
			return true
		}
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			next = AbsoluteURL(href, currentURL)
		}
		return false
	})
	return next
}

// nextFromURLPattern increments the page counter in URLs shaped like
// ".../Islamabad-3-1.html"; the digit run right before the extension is the
// page number.
func nextFromURLPattern(_ *goquery.Document, currentURL string) string {
	m := pageSuffixPattern.FindStringSubmatch(currentURL)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return pageSuffixPattern.ReplaceAllString(currentURL, fmt.Sprintf("-%d.html", n+1))
}

func relHasNextToken(rel string) bool {
	for _, token := range strings.Fields(rel) {
		if token == "next" {
			return true
		}
	}
	return false
}

// AbsoluteURL turns an href into an absolute URL. Root-relative paths go to
// the site origin; other relative paths replace the last segment of the base
// page URL, or fall back to the origin when no base is known.
func AbsoluteURL(href, base string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return siteOrigin + href
	case base != "":
		if i := strings.LastIndex(base, "/"); i >= 0 {
			return base[:i+1] + href
		}
		return base + "/" + href
	default:
		return siteOrigin + "/" + href
	}
}
