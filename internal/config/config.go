package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/quakeplay/internal/feed"
	"github.com/san-kum/quakeplay/internal/playback"
)

const (
	DefaultDataDir    = ".quakeplay"
	DefaultArchive    = "archive.db"
	DefaultAddr       = ":8080"
	DefaultSpeedMs    = 1000
	DefaultWindowDays = 7
	DefaultTimeout    = 30 * time.Second
	DefaultRetryCount = 0
	DefaultFrameRate  = 30
	DefaultRadiusKm   = 500.0
	EnvPrefix         = "QUAKEPLAY_"
)

type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Playback PlaybackConfig `yaml:"playback"`
	Region   RegionConfig   `yaml:"region"`
	DataDir  string         `yaml:"data_dir"`
	Archive  string         `yaml:"archive"`
	Server   ServerConfig   `yaml:"server"`
}

type FeedConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
}

type PlaybackConfig struct {
	Mode       string `yaml:"mode"`
	SpeedMs    int64  `yaml:"speed_ms"`
	Loop       bool   `yaml:"loop"`
	WindowDays int    `yaml:"window_days"`
	FrameRate  int    `yaml:"frame_rate"`
}

// RegionConfig restricts playback to events near a point. An empty Near
// disables the filter.
type RegionConfig struct {
	Near     string  `yaml:"near"`
	RadiusKm float64 `yaml:"radius_km"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:        feed.DefaultURL,
			Timeout:    DefaultTimeout,
			RetryCount: DefaultRetryCount,
		},
		Playback: PlaybackConfig{
			Mode:       playback.Cumulative.String(),
			SpeedMs:    DefaultSpeedMs,
			WindowDays: DefaultWindowDays,
			FrameRate:  DefaultFrameRate,
		},
		Region:  RegionConfig{RadiusKm: DefaultRadiusKm},
		DataDir: DefaultDataDir,
		Archive: DefaultArchive,
		Server:  ServerConfig{Addr: DefaultAddr},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads .env files (missing files are ignored) into the process
// environment without overriding variables that are already set.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from QUAKEPLAY_* variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("FEED_URL"); ok {
		c.Feed.URL = v
	}
	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Feed.Timeout = d
	}
	if v, ok := get("RETRY_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_COUNT: %w", EnvPrefix, err)
		}
		c.Feed.RetryCount = n
	}
	if v, ok := get("MODE"); ok {
		c.Playback.Mode = v
	}
	if v, ok := get("SPEED_MS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSPEED_MS: %w", EnvPrefix, err)
		}
		c.Playback.SpeedMs = n
	}
	if v, ok := get("LOOP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOOP: %w", EnvPrefix, err)
		}
		c.Playback.Loop = b
	}
	if v, ok := get("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := get("ARCHIVE"); ok {
		c.Archive = v
	}
	if v, ok := get("ADDR"); ok {
		c.Server.Addr = v
	}
	return nil
}

// PlaybackOptions converts the playback section into controller options.
func (c *Config) PlaybackOptions() (playback.Options, error) {
	opts := playback.DefaultOptions()
	mode, err := playback.ParseMode(c.Playback.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.Looping = c.Playback.Loop
	if c.Playback.SpeedMs > 0 {
		opts.SpeedMs = c.Playback.SpeedMs
	}
	if c.Playback.WindowDays > 0 {
		opts.WindowMs = int64(c.Playback.WindowDays) * playback.StepMs
	}
	return opts, nil
}

// FeedOptions converts the feed section into client options.
func (c *Config) FeedOptions() feed.Options {
	opts := feed.DefaultOptions()
	if c.Feed.URL != "" {
		opts.URL = c.Feed.URL
	}
	if c.Feed.Timeout > 0 {
		opts.Timeout = c.Feed.Timeout
	}
	opts.RetryCount = c.Feed.RetryCount
	return opts
}
