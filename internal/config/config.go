package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen             = "127.0.0.1:8080"
	defaultDataset            = "./data/cities.json"
	defaultDatasetCacheDir    = "./var/dataset-cache"
	defaultLogLevel           = "info"
	defaultResultCacheSeconds = 300
	defaultProductID          = "-//tzdiff//offset changes//EN"
	defaultCalendarName       = "Time difference changes"
)

// CalendarConfig controls the exported iCalendar file.
type CalendarConfig struct {
	// ProductID is written as the calendar PRODID.
	ProductID string `yaml:"product_id" json:"product_id"`
	// Name is written as X-WR-CALNAME, shown by most clients as the
	// calendar title.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address used by `tzdiff serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Dataset locates the grouped city dataset. Supported forms:
	//   - a file path (".json" or ".json.gz")
	//   - an http(s):// URL, fetched with a disk cache
	//   - sqlite://<path>, reading the cities table
	Dataset string `yaml:"dataset" json:"dataset"`

	// DatasetCacheDir holds the HTTP cache for URL datasets.
	DatasetCacheDir string `yaml:"dataset_cache_dir" json:"dataset_cache_dir"`

	// Reload is a cron spec (e.g. "0 3 * * *") for reloading the dataset
	// while serving. Empty disables reloading.
	Reload string `yaml:"reload" json:"reload"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Color toggles ANSI colours in CLI output.
	Color bool `yaml:"color" json:"color"`

	// ResultCacheSeconds is how long the HTTP surface reuses a computed
	// result for identical parameters. Zero or negative uses the default.
	ResultCacheSeconds int `yaml:"result_cache_seconds" json:"result_cache_seconds"`

	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:             defaultListen,
		Dataset:            defaultDataset,
		DatasetCacheDir:    defaultDatasetCacheDir,
		Reload:             "",
		LogLevel:           defaultLogLevel,
		Color:              true,
		ResultCacheSeconds: defaultResultCacheSeconds,
		Calendar: CalendarConfig{
			ProductID: defaultProductID,
			Name:      defaultCalendarName,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Dataset == "" {
		c.Dataset = defaultDataset
	}
	if c.DatasetCacheDir == "" {
		c.DatasetCacheDir = defaultDatasetCacheDir
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// ok
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.ResultCacheSeconds <= 0 {
		c.ResultCacheSeconds = defaultResultCacheSeconds
	}
	if c.Calendar.ProductID == "" {
		c.Calendar.ProductID = defaultProductID
	}
	if c.Calendar.Name == "" {
		c.Calendar.Name = defaultCalendarName
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Reload != "" {
		if _, err := cron.ParseStandard(c.Reload); err != nil {
			return errors.New("config: invalid reload schedule: " + err.Error())
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "") != (c.BasicAuth.Password == "") {
		return errors.New("config: basic_auth needs both username and password")
	}
	return nil
}

// ApplyEnv overrides file values with TZDIFF_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TZDIFF_DATASET"); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv("TZDIFF_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("TZDIFF_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - Otherwise the YAML is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename in the same
// directory) with 0600 permissions, creating the parent directory as 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tzdiff-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
