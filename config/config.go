// Package config loads the producer and consumer TOML configurations.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Ring describes the shared memory ring both binaries attach to.
type Ring struct {
	Path          string `toml:"path"`
	Capacity      uint64 `toml:"capacity"`
	LayoutVersion uint32 `toml:"layout_version"`
}

// Feed configures the producer's upstream.
type Feed struct {
	Mode  string `toml:"mode"`   // "binance" or "mock"
	WSURL string `toml:"ws_url"` // websocket endpoint for mode "binance"
	// Symbols maps exchange tickers (e.g. "BTCUSDT") to dense symbol ids.
	Symbols     map[string]uint16 `toml:"symbols"`
	PxDecimals  uint              `toml:"px_decimals"`
	QtyDecimals uint              `toml:"qty_decimals"`
	MockTickMs  int               `toml:"mock_tick_ms"`
}

// Logging selects the log level; the LITHOS_LOG_LEVEL environment
// variable overrides it.
type Logging struct {
	Level string `toml:"level"`
}

// Producer is the obsidian binary configuration.
type Producer struct {
	Ring Ring `toml:"ring"`
	Feed Feed `toml:"feed"`
	// MaxSymbols is the consumer index capacity the symbol map must fit.
	MaxSymbols int     `toml:"max_symbols"`
	Logging    Logging `toml:"logging"`
}

// Consumer is the onyx binary configuration.
type Consumer struct {
	Ring Ring `toml:"ring"`
	// MaxSymbols is the market state index capacity.
	MaxSymbols int `toml:"max_symbols"`
	// Backoff on an empty ring: "spin", "yield" or "sleep".
	Backoff     string  `toml:"backoff"`
	MetricsAddr string  `toml:"metrics_addr"`
	Logging     Logging `toml:"logging"`
}

const (
	DefaultRingPath   = "/tmp/lithos_md_bus"
	DefaultCapacity   = 1 << 16
	DefaultVersion    = 1
	DefaultMaxSymbols = 256
)

func applyRingDefaults(r *Ring) {
	if r.Path == "" {
		r.Path = DefaultRingPath
	}
	if r.Capacity == 0 {
		r.Capacity = DefaultCapacity
	}
	if r.LayoutVersion == 0 {
		r.LayoutVersion = DefaultVersion
	}
}

func validateRing(r Ring) error {
	if r.Capacity == 0 || r.Capacity&(r.Capacity-1) != 0 {
		return fmt.Errorf("config: ring capacity must be a power of two, got %d", r.Capacity)
	}
	return nil
}

// LoadProducer reads and validates a producer config.
func LoadProducer(path string) (*Producer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Producer
	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyRingDefaults(&c.Ring)
	if c.MaxSymbols == 0 {
		c.MaxSymbols = DefaultMaxSymbols
	}
	if c.Feed.Mode == "" {
		c.Feed.Mode = "binance"
	}
	if c.Feed.PxDecimals == 0 {
		c.Feed.PxDecimals = 2
	}
	if c.Feed.QtyDecimals == 0 {
		c.Feed.QtyDecimals = 3
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if err := validateRing(c.Ring); err != nil {
		return nil, err
	}
	switch c.Feed.Mode {
	case "binance":
		if c.Feed.WSURL == "" {
			return nil, fmt.Errorf("config: feed.ws_url is required for mode %q", c.Feed.Mode)
		}
	case "mock":
	default:
		return nil, fmt.Errorf("config: unknown feed mode %q", c.Feed.Mode)
	}
	if len(c.Feed.Symbols) == 0 {
		return nil, fmt.Errorf("config: feed.symbols must not be empty")
	}
	for ticker, id := range c.Feed.Symbols {
		if int(id) >= c.MaxSymbols {
			return nil, fmt.Errorf("config: symbol %q id %d exceeds max_symbols %d", ticker, id, c.MaxSymbols)
		}
	}
	return &c, nil
}

// LoadConsumer reads and validates a consumer config.
func LoadConsumer(path string) (*Consumer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Consumer
	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyRingDefaults(&c.Ring)
	if c.MaxSymbols == 0 {
		c.MaxSymbols = DefaultMaxSymbols
	}
	if c.Backoff == "" {
		c.Backoff = "yield"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if err := validateRing(c.Ring); err != nil {
		return nil, err
	}
	switch c.Backoff {
	case "spin", "yield", "sleep":
	default:
		return nil, fmt.Errorf("config: unknown backoff %q", c.Backoff)
	}
	if c.MaxSymbols < 1 || c.MaxSymbols > 1<<16 {
		return nil, fmt.Errorf("config: max_symbols must be in 1..%d, got %d", 1<<16, c.MaxSymbols)
	}
	return &c, nil
}
