package output

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

// listingRecord is the SQLite row shape. Unlike the CSV export it keeps the
// URL, raw price text, currency and description.
type listingRecord struct {
	ID           uint   `gorm:"primaryKey"`
	URL          string `gorm:"index"`
	Title        string
	PriceText    string
	PriceNumeric *float64
	Currency     string
	Location     string
	City         string
	PropertyType string
	Bedrooms     *int
	Bathrooms    *int
	Area         string
	BuiltInYear  string
	Description  string

	ParkingSpace        string
	ServantQuarters     string
	StoreRooms          string
	Kitchens            string
	DrawingRoom         string
	Floors              string
	DinningRoom         string
	StudyRoom           string
	LaundryRoom         string
	LoungeOrSittingRoom string
	PowderRoom          string
	PrayerRoom          string

	ScrapedAt time.Time
}

func (listingRecord) TableName() string { return "listings" }

// SQLiteWriter stores listings in a local SQLite database.
type SQLiteWriter struct {
	db *gorm.DB
}

// NewSQLiteWriter opens (or creates) the database at the given path and
// migrates the listings table.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.AutoMigrate(&listingRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

func (s *SQLiteWriter) Name() string { return "sqlite" }

// Write inserts one listing row.
func (s *SQLiteWriter) Write(l *scrape.Listing) error {
	rec := listingRecord{
		URL:          l.URL,
		Title:        l.Title,
		PriceText:    l.Price,
		PriceNumeric: l.PriceNumeric,
		Currency:     l.Currency,
		Location:     l.Location,
		City:         l.City,
		PropertyType: l.PropertyType,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Area:         l.Area,
		BuiltInYear:  l.BuiltInYear,
		Description:  l.Description,

		ParkingSpace:        l.ParkingSpace.String(),
		ServantQuarters:     l.ServantQuarters.String(),
		StoreRooms:          l.StoreRooms.String(),
		Kitchens:            l.Kitchens.String(),
		DrawingRoom:         l.DrawingRoom.String(),
		Floors:              l.Floors.String(),
		DinningRoom:         l.DinningRoom.String(),
		StudyRoom:           l.StudyRoom.String(),
		LaundryRoom:         l.LaundryRoom.String(),
		LoungeOrSittingRoom: l.LoungeOrSittingRoom.String(),
		PowderRoom:          l.PowderRoom.String(),
		PrayerRoom:          l.PrayerRoom.String(),

		ScrapedAt: time.Now(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("sqlite: insert listing: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLiteWriter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
