package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type ConfigReader interface {
	ReadConfig() (*Config, error)
}

type DefaultConfigReader struct {
}

type FileConfigReader struct {
	pathToConfigFile string
}

type EnvConfigReader struct {
	base     ConfigReader
	envFiles []string
	lookup   func(string) (string, bool)
}

type CmdConfigReader struct {
	cmd *cobra.Command
}

func NewDefaultConfigReader() ConfigReader {
	return &DefaultConfigReader{}
}

func NewFileConfigReader(filepath string) ConfigReader {
	return &FileConfigReader{pathToConfigFile: filepath}
}

// NewEnvConfigReader overlays ORDERBOOK_* variables on the base config.
// Missing env files are ignored.
func NewEnvConfigReader(base ConfigReader, envFiles ...string) ConfigReader {
	return &EnvConfigReader{base: base, envFiles: envFiles, lookup: os.LookupEnv}
}

// NewCmdConfigReader layers defaults, --config file, environment and explicitly set flags
func NewCmdConfigReader(cmd *cobra.Command) ConfigReader {
	return &CmdConfigReader{cmd: cmd}
}

func (m *DefaultConfigReader) ReadConfig() (*Config, error) {
	return Default(), nil
}

func (m *FileConfigReader) ReadConfig() (*Config, error) {
	dat, err := os.ReadFile(m.pathToConfigFile)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config file %s", m.pathToConfigFile)
	}
	c := Default()
	// yaml.v3 reads JSON documents as well
	if err := yaml.Unmarshal(dat, c); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config file %s", m.pathToConfigFile)
	}
	if c.Feed.Path != "" && !filepath.IsAbs(c.Feed.Path) {
		c.Feed.Path = filepath.Join(filepath.Dir(m.pathToConfigFile), c.Feed.Path)
	}
	return c, nil
}

func (m *EnvConfigReader) ReadConfig() (*Config, error) {
	if err := godotenv.Load(m.envFiles...); err != nil {
		logrus.Debugf("No env file loaded: %s", err)
	}
	c, err := m.base.ReadConfig()
	if err != nil {
		return nil, err
	}
	if v, ok := m.lookup("ORDERBOOK_FEED"); ok {
		c.Feed.Path = v
	}
	if v, ok := m.lookup("ORDERBOOK_FEED_FORMAT"); ok {
		c.Feed.Format = v
	}
	if v, ok := m.lookup("ORDERBOOK_LENIENT"); ok {
		c.Feed.Lenient = isTrue(v)
	}
	if v, ok := m.lookup("ORDERBOOK_DEPTH"); ok {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "ORDERBOOK_DEPTH is not a number: %s", v)
		}
		c.Report.Depth = depth
	}
	if v, ok := m.lookup("ORDERBOOK_REPORT_FORMAT"); ok {
		c.Report.Format = v
	}
	if v, ok := m.lookup("ORDERBOOK_OUTPUT"); ok {
		c.Report.Output = v
	}
	if v, ok := m.lookup("ORDERBOOK_PUBLISH_URL"); ok {
		c.Report.PublishURL = v
	}
	if v, ok := m.lookup("ORDERBOOK_SETTLE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "ORDERBOOK_SETTLE_TIMEOUT is not a duration: %s", v)
		}
		c.SettleTimeout = d
	}
	if v, ok := m.lookup("ORDERBOOK_LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := m.lookup("DEBUG"); ok && len(v) > 0 {
		c.Verbose = true
	}
	return c, nil
}

func (m *CmdConfigReader) ReadConfig() (*Config, error) {
	var base ConfigReader = NewDefaultConfigReader()
	if path := m.stringFlag("config"); path != "" {
		base = NewFileConfigReader(path)
	}
	c, err := NewEnvConfigReader(base).ReadConfig()
	if err != nil {
		return nil, err
	}

	if m.changed("file") {
		c.Feed.Path = m.stringFlag("file")
	}
	if m.changed("feed") {
		c.Feed.Path = m.stringFlag("feed")
	}
	if m.changed("format") {
		c.Feed.Format = m.stringFlag("format")
	}
	if m.changed("lenient") {
		c.Feed.Lenient, _ = m.cmd.Flags().GetBool("lenient")
	}
	if m.changed("depth") {
		c.Report.Depth, _ = m.cmd.Flags().GetInt("depth")
	}
	if m.changed("report-format") {
		c.Report.Format = m.stringFlag("report-format")
	}
	if m.changed("output") {
		c.Report.Output = m.stringFlag("output")
	}
	if m.changed("publish-url") {
		c.Report.PublishURL = m.stringFlag("publish-url")
	}
	if m.changed("settle-timeout") {
		c.SettleTimeout, _ = m.cmd.Flags().GetDuration("settle-timeout")
	}
	if m.changed("listen") {
		c.Listen = m.stringFlag("listen")
	}
	if m.changed("verbose") {
		c.Verbose, _ = m.cmd.Flags().GetBool("verbose")
	}
	return c, nil
}

func (m *CmdConfigReader) changed(name string) bool {
	f := m.cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func (m *CmdConfigReader) stringFlag(name string) string {
	f := m.cmd.Flags().Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func isTrue(v string) bool {
	return strings.Contains(strings.ToLower(v), "true") || v == "1"
}
