// Package extractor turns Zameen markup into domain values: listing fields
// from detail pages, detail links and pagination from result pages, and
// normalized prices.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

// Selectors for Zameen's detail-page markup. The hashed class names are
// stable across the site's current build.
const (
	titleSelector         = "div.c121f914 h1.aea614fd"
	locationSelector      = "div.c121f914 div.cd230541"
	detailsBlockSelector  = "div._83bb17d1 ul._3dc8d08d"
	detailLabelSelector   = "span.ed0db22a"
	detailValueSelector   = "span._2fdf7fc5"
	sectionSelector       = "div._83bb17d1"
	priceFallbackSelector = "span._105b8a67, span._2923a568, div._2923a568, span._2fdf7fc5[aria-label='Price']"
	descriptionSelector   = "div._3e9c24cd, div._2a806e1f, section._3e9c24cd, div._2d2b3f3a"
)

var (
	firstIntPattern  = regexp.MustCompile(`\d+`)
	builtYearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// passes run in document order; later passes only fill what earlier ones
// left absent where a guard is noted.
var passes = []func(doc *goquery.Document, l *scrape.Listing){
	extractTitle,
	extractLocation,
	extractDetailsBlock,
	extractPriceFallback,
	extractAmenities,
	extractDescription,
}

// ExtractListing builds a Listing from a parsed detail page. Selector misses
// leave fields absent; extraction itself never fails.
func ExtractListing(doc *goquery.Document, url string) *scrape.Listing {
	l := &scrape.Listing{URL: url}
	for _, pass := range passes {
		pass(doc, l)
	}
	return l
}

func extractTitle(doc *goquery.Document, l *scrape.Listing) {
	if s := doc.Find(titleSelector).First(); s.Length() > 0 {
		l.Title = joinedText(s)
	}
}

func extractLocation(doc *goquery.Document, l *scrape.Listing) {
	if s := doc.Find(locationSelector).First(); s.Length() > 0 {
		l.Location = joinedText(s)
	}
}

// fieldRule pairs a label predicate with the handler that stores the value.
// Chains are ordered and the first matching rule wins.
type fieldRule struct {
	match func(label string, l *scrape.Listing) bool
	apply func(l *scrape.Listing, value string)
}

// labelRules drive the details block by the visible label text.
var labelRules = []fieldRule{
	{
		match: func(label string, _ *scrape.Listing) bool { return strings.Contains(label, "price") },
		apply: setPrice,
	},
	{
		match: func(label string, _ *scrape.Listing) bool { return strings.Contains(label, "area") },
		apply: func(l *scrape.Listing, v string) { l.Area = v },
	},
	{
		match: func(label string, _ *scrape.Listing) bool { return strings.Contains(label, "type") },
		apply: func(l *scrape.Listing, v string) { l.PropertyType = v },
	},
	{
		// matches "Bedroom(s)"
		match: func(label string, _ *scrape.Listing) bool { return strings.Contains(label, "bed") },
		apply: func(l *scrape.Listing, v string) {
			if n := firstInt(v); n != nil {
				l.Bedrooms = n
			}
		},
	},
	{
		// matches "Bath(s)"
		match: func(label string, _ *scrape.Listing) bool { return strings.Contains(label, "bath") },
		apply: func(l *scrape.Listing, v string) {
			if n := firstInt(v); n != nil {
				l.Bathrooms = n
			}
		},
	},
}

// ariaRules back-fill from the value span's aria-label when the visible
// label matched nothing; each rule only fills a still-absent field.
var ariaRules = []fieldRule{
	{
		match: func(label string, l *scrape.Listing) bool {
			return strings.Contains(label, "price") && l.Price == ""
		},
		apply: setPrice,
	},
	{
		match: func(label string, l *scrape.Listing) bool {
			return strings.Contains(label, "area") && l.Area == ""
		},
		apply: func(l *scrape.Listing, v string) { l.Area = v },
	},
	{
		match: func(label string, l *scrape.Listing) bool {
			return strings.Contains(label, "bed") && l.Bedrooms == nil
		},
		apply: func(l *scrape.Listing, v string) {
			if n := firstInt(v); n != nil {
				l.Bedrooms = n
			}
		},
	},
	{
		match: func(label string, l *scrape.Listing) bool {
			return strings.Contains(label, "bath") && l.Bathrooms == nil
		},
		apply: func(l *scrape.Listing, v string) {
			if n := firstInt(v); n != nil {
				l.Bathrooms = n
			}
		},
	},
	{
		match: func(label string, l *scrape.Listing) bool {
			return strings.Contains(label, "type") && l.PropertyType == ""
		},
		apply: func(l *scrape.Listing, v string) { l.PropertyType = v },
	},
}

func extractDetailsBlock(doc *goquery.Document, l *scrape.Listing) {
	block := doc.Find(detailsBlockSelector).First()
	if block.Length() == 0 {
		return
	}

	block.Find("li").Each(func(_ int, li *goquery.Selection) {
		labelEl := li.Find(detailLabelSelector).First()
		valueEl := li.Find(detailValueSelector).First()

		label := strings.ToLower(joinedText(labelEl))
		value := joinedText(valueEl)
		if valueEl.Length() == 0 {
			value = joinedText(li)
		}

		for _, rule := range labelRules {
			if rule.match(label, l) {
				rule.apply(l, value)
				return
			}
		}

		aria, exists := valueEl.Attr("aria-label")
		if !exists {
			return
		}
		aria = strings.ToLower(strings.TrimSpace(aria))
		for _, rule := range ariaRules {
			if rule.match(aria, l) {
				rule.apply(l, value)
				return
			}
		}
	})
}

// setPrice stores the raw price text and its normalized form together so the
// three price fields never disagree.
func setPrice(l *scrape.Listing, value string) {
	l.Price = value
	num, currency, ok := NormalizePrice(value)
	l.Currency = currency
	if ok {
		l.PriceNumeric = &num
	} else {
		l.PriceNumeric = nil
	}
}

func extractPriceFallback(doc *goquery.Document, l *scrape.Listing) {
	if l.Price != "" {
		return
	}
	if s := doc.Find(priceFallbackSelector).First(); s.Length() > 0 {
		setPrice(l, joinedText(s))
	}
}

// amenityRule triggers are independent: several can fire on one item, and a
// later item overwrites an earlier match.
type amenityRule struct {
	match func(text string) bool
	apply func(l *scrape.Listing, text string)
}

var amenityRules = []amenityRule{
	{match: hasAny("park"), apply: func(l *scrape.Listing, t string) { l.ParkingSpace = countOrPresent(t) }},
	{match: hasAny("servant"), apply: func(l *scrape.Listing, t string) { l.ServantQuarters = countOrPresent(t) }},
	{match: hasAny("store"), apply: func(l *scrape.Listing, t string) { l.StoreRooms = countOrPresent(t) }},
	{match: hasAny("kitchen"), apply: func(l *scrape.Listing, t string) { l.Kitchens = countOrPresent(t) }},
	{match: hasAny("drawing"), apply: func(l *scrape.Listing, _ string) { l.DrawingRoom = scrape.PresentAmenity() }},
	{match: hasAny("dining"), apply: func(l *scrape.Listing, _ string) { l.DinningRoom = scrape.PresentAmenity() }},
	{match: hasAny("study"), apply: func(l *scrape.Listing, _ string) { l.StudyRoom = scrape.PresentAmenity() }},
	{match: hasAny("prayer", "masjid"), apply: func(l *scrape.Listing, _ string) { l.PrayerRoom = scrape.PresentAmenity() }},
	{match: hasAny("powder"), apply: func(l *scrape.Listing, _ string) { l.PowderRoom = scrape.PresentAmenity() }},
	{match: hasAny("lounge", "sitting", "living"), apply: func(l *scrape.Listing, _ string) { l.LoungeOrSittingRoom = scrape.PresentAmenity() }},
}

func extractAmenities(doc *goquery.Document, l *scrape.Listing) {
	var section *goquery.Selection
	doc.Find(sectionSelector).EachWithBreak(func(_ int, sec *goquery.Selection) bool {
		h3 := sec.Find("h3").First()
		if h3.Length() > 0 && strings.Contains(strings.ToLower(joinedText(h3)), "amenit") {
			section = sec
			return false
		}
		return true
	})
	if section == nil {
		return
	}

	section.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := joinedText(li)
		low := strings.ToLower(text)

		if year := builtYearPattern.FindString(text); year != "" && l.BuiltInYear == "" {
			l.BuiltInYear = year
		}
		for _, rule := range amenityRules {
			if rule.match(low) {
				rule.apply(l, text)
			}
		}
	})
}

func extractDescription(doc *goquery.Document, l *scrape.Listing) {
	if s := doc.Find(descriptionSelector).First(); s.Length() > 0 {
		l.Description = joinedText(s)
	}
}

// hasAny builds a predicate matching any of the given substrings.
func hasAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func countOrPresent(text string) scrape.Amenity {
	if digits := firstIntPattern.FindString(text); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return scrape.CountedAmenity(n)
		}
	}
	return scrape.PresentAmenity()
}

func firstInt(s string) *int {
	digits := firstIntPattern.FindString(s)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// joinedText flattens a selection to text, joining text nodes with spaces
// and collapsing runs of whitespace.
func joinedText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		appendText(&b, node)
	}
	return cleanText(b.String())
}

func appendText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(b, c)
	}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
