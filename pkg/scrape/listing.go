package scrape

import "strconv"

// Listing is one property record scraped from a detail page. String fields
// use "" for absent; numeric fields use nil so a missing value is never
// confused with a real zero.
type Listing struct {
	URL          string
	Title        string
	Price        string // raw price text as displayed
	PriceNumeric *float64
	Currency     string
	Location     string
	Bedrooms     *int
	Bathrooms    *int
	Area         string
	PropertyType string
	Description  string
	BuiltInYear  string
	City         string

	ParkingSpace        Amenity
	ServantQuarters     Amenity
	StoreRooms          Amenity
	Kitchens            Amenity
	DrawingRoom         Amenity
	Floors              Amenity
	DinningRoom         Amenity
	StudyRoom           Amenity
	LaundryRoom         Amenity
	LoungeOrSittingRoom Amenity
	PowderRoom          Amenity
	PrayerRoom          Amenity
}

// Amenity records whether a listing feature was seen on the page. The zero
// value is Unknown; a feature may be Present with no count, or counted.
type Amenity struct {
	state amenityState
	count int
}

type amenityState uint8

const (
	amenityUnknown amenityState = iota
	amenityPresent
	amenityCounted
)

// PresentAmenity returns an Amenity confirmed present with no count.
func PresentAmenity() Amenity {
	return Amenity{state: amenityPresent}
}

// CountedAmenity returns an Amenity with a known count.
func CountedAmenity(n int) Amenity {
	return Amenity{state: amenityCounted, count: n}
}

// Known reports whether the amenity was seen at all.
func (a Amenity) Known() bool {
	return a.state != amenityUnknown
}

// Count returns the count and whether one was recorded.
func (a Amenity) Count() (int, bool) {
	return a.count, a.state == amenityCounted
}

// String renders the amenity the way the output schema expects: "" when
// unknown, "Yes" when present, the decimal count otherwise.
func (a Amenity) String() string {
	switch a.state {
	case amenityPresent:
		return "Yes"
	case amenityCounted:
		return strconv.Itoa(a.count)
	default:
		return ""
	}
}
