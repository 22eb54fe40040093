package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/pkg/hostutil"
	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config is the vigil-dashboard runtime configuration.
//
// Sources, lowest precedence first:
//   - struct defaults (`default:` tags)
//   - YAML file (vigil-dashboard.yaml)
//   - environment (ENV, VIGIL_API_URL, VIGIL_VIDEO_BASE_URL, VIGIL_REDIS_ADDR, VIGIL_PORT)
type Config struct {
	ListenAddr     string   `yaml:"listen_address" default:"0.0.0.0"`
	Port           string   `yaml:"port"           default:"8080"`
	TrustedProxies []string `yaml:"trusted_proxies"`
	LogLevel       string   `yaml:"log_level"      default:"info"`

	// APIURL is the surveillance backend base URL. Must be absolute.
	APIURL string `yaml:"api_url" default:"http://127.0.0.1:5000"`
	// VideoBaseURL prefixes /videos/ URLs handed to the UI; "" keeps them relative.
	VideoBaseURL string `yaml:"video_base_url"`
	// RosterPath points at a YAML roster file; "" uses the built-in roster.
	RosterPath string `yaml:"roster_path"`

	Poll  PollConfig  `yaml:"poll"`
	Redis RedisConfig `yaml:"redis"`
	HTTP  HTTPConfig  `yaml:"http"`

	Dev bool `yaml:"-"` // ENV=dev
}

type PollConfig struct {
	Enabled         bool          `yaml:"enabled"           default:"true"`
	Interval        time.Duration `yaml:"interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	RetainOnFailure bool          `yaml:"retain_on_failure" default:"false"`
}

type RedisConfig struct {
	// Addr empty disables the snapshot mirror.
	Addr      string `yaml:"address"`
	DB        int    `yaml:"db"         default:"0"`
	KeyPrefix string `yaml:"key_prefix" default:"vigil"`
}

type HTTPConfig struct {
	MaxConcurrentRequests int      `yaml:"max_concurrent_requests" default:"64"`
	AllowOrigins          []string `yaml:"allow_origins"`
}

const (
	defaultPollInterval = 6 * time.Second
	defaultFetchTimeout = 5 * time.Second
)

var ErrInvalidConfig = errors.New("invalid config")

// Default returns a config with every default applied.
func Default() *Config {
	cfg := new(Config)
	defaults.SetDefaults(cfg)
	cfg.fillDurations()
	return cfg
}

// Load reads path (or the first existing default location when path is "")
// on top of the defaults, then applies environment overrides.
// A missing file is an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = defaultFilePath("vigil-dashboard.yaml", "/etc/vigil-dashboard/vigil-dashboard.yaml")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.fillDurations()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("ENV"); ok {
		c.Dev = v == "dev"
	}
	if v, ok := lookup("VIGIL_API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := lookup("VIGIL_VIDEO_BASE_URL"); ok {
		c.VideoBaseURL = v
	}
	if v, ok := lookup("VIGIL_REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup("VIGIL_PORT"); ok && v != "" {
		c.Port = v
	}
}

func (c *Config) fillDurations() {
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = defaultPollInterval
	}
	if c.Poll.FetchTimeout <= 0 {
		c.Poll.FetchTimeout = defaultFetchTimeout
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Port)
	}
	if c.ListenAddr != "" {
		if err := hostutil.ValidateHost(c.ListenAddr); err != nil {
			return fmt.Errorf("%w: listen_address: %v", ErrInvalidConfig, err)
		}
	}
	if err := validateHTTPURL(c.APIURL); err != nil {
		return fmt.Errorf("%w: api_url: %v", ErrInvalidConfig, err)
	}
	if raw := c.VideoBaseURL; raw != "" && !strings.HasPrefix(raw, "/") {
		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("%w: video_base_url: %v (or a path)", ErrInvalidConfig, err)
		}
	}
	if c.Poll.Interval < time.Second {
		return fmt.Errorf("%w: poll.interval %s below 1s", ErrInvalidConfig, c.Poll.Interval)
	}
	if c.Redis.Addr != "" {
		if err := hostutil.ValidateHostPort(c.Redis.Addr); err != nil {
			return fmt.Errorf("%w: redis.addr: %v", ErrInvalidConfig, err)
		}
	}
	if c.HTTP.MaxConcurrentRequests < 1 {
		return fmt.Errorf("%w: http.max_concurrent_requests must be positive", ErrInvalidConfig)
	}
	return nil
}

// validateHTTPURL accepts only absolute http(s) URLs with a valid host.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an absolute http(s) URL", raw)
	}
	return hostutil.ValidateHost(u.Hostname())
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return c.ListenAddr + ":" + c.Port }

// defaultFilePath returns the first existing path, or "".
func defaultFilePath(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
