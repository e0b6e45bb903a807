// Package config loads Playlist-Pulse settings. Values start from built-in
// defaults, are overlaid by an optional TOML file and finally by environment
// variables so deployments can keep secrets out of the file.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"Playlist-Pulse/pkg/cache"
	"Playlist-Pulse/pkg/spotify"
)

// Spotify holds the catalog client settings.
type Spotify struct {
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"client_secret"`
	TokenURL          string  `toml:"token_url"`
	APIURL            string  `toml:"api_url"`
	MaxRetries        int     `toml:"max_retries"`
	RetryBackoffMs    int     `toml:"retry_backoff_ms"`
	MaxRetryDelayMs   int     `toml:"max_retry_delay_ms"`
	RateLimitRPS      float64 `toml:"rate_limit_rps"`
	Burst             int     `toml:"burst"`
	MaxPlaylistTracks int     `toml:"max_playlist_tracks"`
}

// TTLSeconds are cache lifetimes per key family in seconds.
type TTLSeconds struct {
	Playlist        int `toml:"playlist"`
	Tracks          int `toml:"tracks"`
	AudioFeatures   int `toml:"audio_features"`
	Artists         int `toml:"artists"`
	Recommendations int `toml:"recommendations"`
	Analysis        int `toml:"analysis"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend    string     `toml:"backend"`
	RedisURL   string     `toml:"redis_url"`
	SQLitePath string     `toml:"sqlite_path"`
	TTL        TTLSeconds `toml:"ttl_seconds"`
}

// Log configures the process logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Spotify     Spotify `toml:"spotify"`
	Cache       Cache   `toml:"cache"`
	Log         Log     `toml:"log"`
	MetricsAddr string  `toml:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	ttl := cache.DefaultTTLs()
	return Config{
		Spotify: Spotify{
			MaxRetries:        3,
			RetryBackoffMs:    1000,
			MaxRetryDelayMs:   30000,
			Burst:             1,
			MaxPlaylistTracks: 10000,
		},
		Cache: Cache{
			TTL: TTLSeconds{
				Playlist:        int(ttl.Playlist / time.Second),
				Tracks:          int(ttl.Tracks / time.Second),
				AudioFeatures:   int(ttl.AudioFeatures / time.Second),
				Artists:         int(ttl.Artists / time.Second),
				Recommendations: int(ttl.Recommendations / time.Second),
				Analysis:        int(ttl.Analysis / time.Second),
			},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

// applyEnv overlays environment variables. Unset variables leave the current
// value alone; malformed numbers are reported.
func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	str("SPOTIFY_TOKEN_URL", &c.Spotify.TokenURL)
	str("SPOTIFY_API_URL", &c.Spotify.APIURL)
	num("SPOTIFY_MAX_RETRIES", &c.Spotify.MaxRetries)
	num("SPOTIFY_RETRY_BACKOFF_MS", &c.Spotify.RetryBackoffMs)
	num("SPOTIFY_MAX_RETRY_DELAY_MS", &c.Spotify.MaxRetryDelayMs)
	if v, ok := lookup("SPOTIFY_RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SPOTIFY_RATE_LIMIT_RPS: %w", err))
		} else {
			c.Spotify.RateLimitRPS = f
		}
	}
	num("SPOTIFY_RATE_LIMIT_BURST", &c.Spotify.Burst)
	num("PULSE_MAX_PLAYLIST_TRACKS", &c.Spotify.MaxPlaylistTracks)

	str("REDIS_URL", &c.Cache.RedisURL)
	str("PULSE_CACHE_BACKEND", &c.Cache.Backend)
	str("PULSE_SQLITE_PATH", &c.Cache.SQLitePath)
	num("PULSE_TTL_PLAYLIST_SECONDS", &c.Cache.TTL.Playlist)
	num("PULSE_TTL_TRACKS_SECONDS", &c.Cache.TTL.Tracks)
	num("PULSE_TTL_AUDIO_FEATURES_SECONDS", &c.Cache.TTL.AudioFeatures)
	num("PULSE_TTL_ARTISTS_SECONDS", &c.Cache.TTL.Artists)
	num("PULSE_TTL_RECOMMENDATIONS_SECONDS", &c.Cache.TTL.Recommendations)
	num("PULSE_TTL_ANALYSIS_SECONDS", &c.Cache.TTL.Analysis)

	str("PULSE_LOG_LEVEL", &c.Log.Level)
	str("PULSE_LOG_FORMAT", &c.Log.Format)
	str("PULSE_METRICS_ADDR", &c.MetricsAddr)
	return errors.Join(errs...)
}

// Validate reports settings that cannot work. Missing credentials are not
// checked here because commands such as "cache ping" run without them.
func (c Config) Validate() error {
	var errs []error
	if c.Spotify.MaxRetries < 1 {
		errs = append(errs, errors.New("spotify.max_retries must be at least 1"))
	}
	if c.Spotify.RetryBackoffMs < 0 || c.Spotify.MaxRetryDelayMs < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if c.Spotify.RateLimitRPS < 0 {
		errs = append(errs, errors.New("spotify.rate_limit_rps must not be negative"))
	}
	if c.Spotify.APIURL != "" && !strings.HasSuffix(c.Spotify.APIURL, "/") {
		errs = append(errs, errors.New("spotify.api_url must end with a slash"))
	}
	switch strings.ToLower(c.Cache.Backend) {
	case cache.BackendAuto, cache.BackendRedis, cache.BackendSQLite, cache.BackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// RequireCredentials reports whether the Spotify credentials are present.
func (c Config) RequireCredentials() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	return nil
}

// RetryPolicy converts the retry settings.
func (c Config) RetryPolicy() spotify.RetryPolicy {
	p := spotify.DefaultRetryPolicy()
	p.MaxAttempts = c.Spotify.MaxRetries
	p.BaseDelay = time.Duration(c.Spotify.RetryBackoffMs) * time.Millisecond
	if c.Spotify.MaxRetryDelayMs > 0 {
		p.MaxDelay = time.Duration(c.Spotify.MaxRetryDelayMs) * time.Millisecond
	}
	return p
}

// SpotifyOptions converts the catalog settings. The logger and transport
// are left for the caller.
func (c Config) SpotifyOptions() spotify.Options {
	return spotify.Options{
		ClientID:          c.Spotify.ClientID,
		ClientSecret:      c.Spotify.ClientSecret,
		TokenURL:          c.Spotify.TokenURL,
		APIURL:            c.Spotify.APIURL,
		Retry:             c.RetryPolicy(),
		RateLimit:         c.Spotify.RateLimitRPS,
		Burst:             c.Spotify.Burst,
		MaxPlaylistTracks: c.Spotify.MaxPlaylistTracks,
	}
}

// CacheConfig converts the cache settings.
func (c Config) CacheConfig() cache.Config {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return cache.Config{
		Backend:    strings.ToLower(c.Cache.Backend),
		RedisURL:   c.Cache.RedisURL,
		SQLitePath: c.Cache.SQLitePath,
		TTL: cache.TTLs{
			Playlist:        sec(c.Cache.TTL.Playlist),
			Tracks:          sec(c.Cache.TTL.Tracks),
			AudioFeatures:   sec(c.Cache.TTL.AudioFeatures),
			Artists:         sec(c.Cache.TTL.Artists),
			Recommendations: sec(c.Cache.TTL.Recommendations),
			Analysis:        sec(c.Cache.TTL.Analysis),
		},
	}
}
