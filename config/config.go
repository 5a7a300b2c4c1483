package config

import (
	"time"
)

// Config holds the tunable policy values for discovery and scraping. The
// thresholds are deliberately configuration rather than hardcoded law: the
// minimum viable record count and the repeated-block threshold were chosen
// from observed chamber sites and may need tuning per deployment.
type Config struct {
	// Minimum record count a static fetch must yield before the rendered
	// fallback is skipped
	MinViableRecords int
	// Minimum number of structurally similar sibling blocks a page must
	// show to be accepted as a listing page
	MinRepeatedBlocks int
	// Maximum number of directories scraped in parallel
	Concurrency int
	// Timeout for a static HTTP fetch
	StaticTimeout time.Duration
	// Timeout for a headless-browser rendered fetch
	RenderTimeout time.Duration
	// Timeout for a single candidate-path existence probe
	ProbeTimeout time.Duration
	// Default cap on directories returned by one discovery run
	MaxResults int
	// User-Agent sent on all outbound requests
	UserAgent string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MinViableRecords:  3,
		MinRepeatedBlocks: 3,
		Concurrency:       3,
		StaticTimeout:     10 * time.Second,
		RenderTimeout:     30 * time.Second,
		ProbeTimeout:      5 * time.Second,
		MaxResults:        20,
		UserAgent:         "dirscout/1.0 (business directory research)",
	}
}
