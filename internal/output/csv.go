// Package output persists scraped listings: a CSV file matching the
// established Zameen export schema, and an optional SQLite database.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

// csvColumns is the export schema. The column order, the capitalized "City"
// and the historical "dinning room" spelling are part of the format;
// "floors" and "laundry room" stay empty but keep their place.
var csvColumns = []string{
	"title", "price", "location", "City", "property type", "bedrooms",
	"bathrooms", "area", "built in year", "parking space",
	"servant quarters", "store rooms", "kitchens", "drawing room", "floors",
	"dinning room", "study room", "laundry room", "lounge or sitting room",
	"powder room", "prayer room",
}

// CSVWriter appends one row per listing. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the file at the given path and writes
// the header row, so even an empty run leaves a parseable file. Intermediate
// directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{file: f, writer: w}, nil
}

func (c *CSVWriter) Name() string { return "csv" }

// Write appends one listing row and flushes it to disk.
func (c *CSVWriter) Write(l *scrape.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		l.Title,
		floatCell(l.PriceNumeric),
		l.Location,
		l.City,
		l.PropertyType,
		intCell(l.Bedrooms),
		intCell(l.Bathrooms),
		l.Area,
		l.BuiltInYear,
		l.ParkingSpace.String(),
		l.ServantQuarters.String(),
		l.StoreRooms.String(),
		l.Kitchens.String(),
		l.DrawingRoom.String(),
		l.Floors.String(),
		l.DinningRoom.String(),
		l.StudyRoom.String(),
		l.LaundryRoom.String(),
		l.LoungeOrSittingRoom.String(),
		l.PowderRoom.String(),
		l.PrayerRoom.String(),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
