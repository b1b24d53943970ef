package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/xolan/tpsheet/internal/osutil"
)

const (
	// ConfigFile is the name of the TOML configuration file
	ConfigFile = "config.toml"

	// DefaultBaseURL is the Clockify REST API root
	DefaultBaseURL = "https://api.clockify.me/api/v1"

	// HolidayTask is the task code submitted for public holidays
	HolidayTask = "holiday"

	// DefaultTask is the task code used when no allocation is given
	DefaultTask = "live"
)

// Environment variables that override api_key.
var apiKeyEnv = []string{"TPSHEET_API_KEY", "CLOCKIFY_CRED"}

// TaskSpec maps a short task code to the labels used by the remote service.
type TaskSpec struct {
	// Label is the task name inside the project
	Label string `toml:"label"`
	// Project is the owning project name
	Project string `toml:"project"`
}

// SanityCheck configures the start-date distance guard.
type SanityCheck struct {
	Enabled   bool `toml:"enabled"`
	RangeDays int  `toml:"range_days"`
}

// Config represents the application configuration.
// It is loaded once and passed by value; nothing mutates it afterwards.
type Config struct {
	// APIKey authenticates against the time-tracking service
	APIKey string `toml:"api_key"`
	// BaseURL is the REST API root, including /api/v1
	BaseURL string `toml:"base_url"`
	// Locale is the tag name attached to every time entry
	Locale string `toml:"locale"`
	// DailyHours is the total every day's allocation must sum to
	DailyHours int `toml:"daily_hours"`
	// Timezone is used to decide what "today" is (IANA timezone name or "Local")
	Timezone string `toml:"timezone"`
	// Timeout bounds every remote call (Go duration string)
	Timeout string `toml:"timeout"`
	// HolidayFile replaces the built-in holiday calendar when set
	HolidayFile string `toml:"holiday_file"`
	// Email and FormURL are handed to the form submitter
	Email   string `toml:"email"`
	FormURL string `toml:"form_url"`

	SanityCheck SanityCheck         `toml:"sanity_check"`
	Tasks       map[string]TaskSpec `toml:"tasks"`
}

// DefaultTasks returns the built-in task table.
func DefaultTasks() map[string]TaskSpec {
	return map[string]TaskSpec{
		"live":     {Label: "Live hours", Project: "Jupiter Staffing APAC"},
		"training": {Label: "Training", Project: "Jupiter Staffing APAC"},
		"OOO":      {Label: "Out Of Office", Project: "Jupiter Non-Billable"},
		"holiday":  {Label: "Holiday", Project: "Jupiter Non-Billable"},
	}
}

// DefaultConfig returns a Config with the defaults used when no file exists.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Locale:     "en_SG",
		DailyHours: 8,
		Timezone:   "Local",
		Timeout:    "5s",
		SanityCheck: SanityCheck{
			Enabled:   true,
			RangeDays: 14,
		},
		Tasks: DefaultTasks(),
	}
}

// GetConfigPath returns the path to the config file, creating its directory.
func GetConfigPath() (string, error) {
	return osutil.AppPath(ConfigFile)
}

// Load reads, normalizes and validates the config file at path.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Tasks = nil
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults if the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		cfg.Normalize()
		return cfg, nil
	}
	return Load(path)
}

// ApplyEnv overrides the API key from the environment, if set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, name := range apiKeyEnv {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			c.APIKey = v
			return
		}
	}
}

// Normalize trims values and fills in defaults for empty fields.
// Task codes from the file are merged over the built-in table.
func (c *Config) Normalize() {
	defaults := DefaultConfig()

	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.Locale = strings.TrimSpace(c.Locale)
	if c.Locale == "" {
		c.Locale = defaults.Locale
	}
	if c.DailyHours == 0 {
		c.DailyHours = defaults.DailyHours
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		c.Timezone = "Local"
	}
	c.Timeout = strings.TrimSpace(c.Timeout)
	if c.Timeout == "" {
		c.Timeout = defaults.Timeout
	}
	c.HolidayFile = strings.TrimSpace(c.HolidayFile)
	c.Email = strings.TrimSpace(c.Email)
	c.FormURL = strings.TrimSpace(c.FormURL)

	merged := DefaultTasks()
	for code, spec := range c.Tasks {
		merged[strings.TrimSpace(code)] = TaskSpec{
			Label:   strings.TrimSpace(spec.Label),
			Project: strings.TrimSpace(spec.Project),
		}
	}
	c.Tasks = merged
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-zA-Z]{2,}$`)

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if c.DailyHours < 1 || c.DailyHours > 24 {
		return fmt.Errorf("daily_hours must be between 1 and 24, got %d", c.DailyHours)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout %q: must be a positive duration such as 5s", c.Timeout)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an http(s) URL", c.BaseURL)
	}
	if c.SanityCheck.RangeDays < 0 {
		return fmt.Errorf("sanity_check.range_days must not be negative, got %d", c.SanityCheck.RangeDays)
	}
	if c.Email != "" && !emailPattern.MatchString(c.Email) {
		return fmt.Errorf("invalid email %q", c.Email)
	}
	if c.FormURL != "" {
		u, err := url.Parse(c.FormURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid form_url %q: must be an https URL", c.FormURL)
		}
	}
	for code, spec := range c.Tasks {
		if code == "" {
			return errors.New("task codes must not be empty")
		}
		if spec.Label == "" || spec.Project == "" {
			return fmt.Errorf("task %q needs both label and project", code)
		}
	}
	if _, ok := c.Tasks[HolidayTask]; !ok {
		return fmt.Errorf("task table must define %q", HolidayTask)
	}
	return nil
}

// Location returns the timezone used to compute "today".
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RequestTimeout returns the per-call timeout, falling back to 5s.
func (c Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// MaskedAPIKey returns the API key with all but the last four characters hidden.
func (c Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(not set)"
	}
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// Encode renders cfg as a TOML document with a short header.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# tpsheet configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stores cfg at path with owner-only permissions, since it holds the API key.
func Write(path string, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// GenerateSampleConfig returns a commented config file with default values.
func GenerateSampleConfig() string {
	return `# tpsheet configuration file

# Clockify API key (or set TPSHEET_API_KEY)
api_key = ""

# REST API root
base_url = "https://api.clockify.me/api/v1"

# Tag attached to every time entry
locale = "en_SG"

# Hours every day's allocation must add up to
daily_hours = 8

# Timezone used to work out "today": IANA name (e.g., "Asia/Singapore") or "Local"
timezone = "Local"

# Timeout for each remote call
timeout = "5s"

# Optional YAML holiday calendar replacing the built-in Singapore calendar
# holiday_file = "/path/to/holidays.yaml"

# Passed to the timesheet form submitter
# email = "me@example.com"
# form_url = "https://forms.example.com/timesheet"

[sanity_check]
enabled = true
range_days = 14

# Task codes accepted by --task. Entries here override the built-in table.
# [tasks.live]
# label = "Live hours"
# project = "Jupiter Staffing APAC"
`
}
