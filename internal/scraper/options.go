package scraper

import "time"

// Config holds all settings for a scrape session.
type Config struct {
	// Target
	SearchURL string

	// Walk control
	MaxPages   int // result pages to walk
	MaxDetails int // detail pages to fetch, 0 or negative means no cap

	// Politeness
	Delay  time.Duration // base pause between requests
	Jitter time.Duration // random spread applied to Delay, +/- up to this much
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		MaxPages:   1,
		MaxDetails: 10,
		Delay:      1500 * time.Millisecond,
		Jitter:     500 * time.Millisecond,
	}
}
