package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/skatteetaten/orderbook/pkg/feed"
)

const (
	DefaultDepth         = 5
	DefaultReportFormat  = "text"
	DefaultSettleTimeout = 5 * time.Second
	DefaultListen        = ":8080"
)

var reportFormats = map[string]bool{"text": true, "json": true, "yaml": true}

type Config struct {
	Feed          FeedSpec      `yaml:"feed"`
	Report        ReportSpec    `yaml:"report"`
	SettleTimeout time.Duration `yaml:"settleTimeout"`
	Listen        string        `yaml:"listen"`
	Verbose       bool          `yaml:"verbose"`
}

type FeedSpec struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
	Lenient bool   `yaml:"lenient"`
}

type ReportSpec struct {
	Depth  int    `yaml:"depth"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	// PublishURL is a collector the report is posted to after a replay
	PublishURL string `yaml:"publishUrl"`
}

// Default returns a config with every optional value filled in
func Default() *Config {
	return &Config{
		Report: ReportSpec{
			Depth:  DefaultDepth,
			Format: DefaultReportFormat,
		},
		SettleTimeout: DefaultSettleTimeout,
		Listen:        DefaultListen,
	}
}

// FeedFormat resolves the configured feed format, falling back to the file extension
func (c *Config) FeedFormat() (feed.Format, error) {
	if c.Feed.Format != "" {
		return feed.ParseFormat(c.Feed.Format)
	}
	return feed.FormatFromPath(c.Feed.Path)
}

// FeedMode maps the lenient flag to a replay mode
func (c *Config) FeedMode() feed.Mode {
	if c.Feed.Lenient {
		return feed.Lenient
	}
	return feed.Strict
}

// Validate checks values shared by all commands
func (c *Config) Validate() error {
	if c.Report.Depth <= 0 {
		return errors.Errorf("report depth must be >0, but is %d", c.Report.Depth)
	}
	if !reportFormats[c.Report.Format] {
		return errors.Errorf("unknown report format %q, expected text, json or yaml", c.Report.Format)
	}
	if c.SettleTimeout <= 0 {
		return errors.Errorf("settle timeout must be positive, but is %s", c.SettleTimeout)
	}
	if c.Feed.Path != "" {
		if _, err := c.FeedFormat(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForReplay additionally requires a feed
func (c *Config) ValidateForReplay() error {
	if c.Feed.Path == "" {
		return errors.New("Expected a feed file to replay")
	}
	return c.Validate()
}
