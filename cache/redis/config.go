package redis

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kitsune-sumo/settings/cache"
)

const (
	defaultPoolSize    = 10
	defaultDialTimeout = 5 * time.Second
	maxDatabase        = 15
)

// Config holds Redis-specific configuration options.
type Config struct {
	// Host is the Redis server hostname or IP address.
	Host string

	// Port is the Redis server port (default: 6379).
	Port int

	Username string
	Password string //nolint:gosec // G117 - config field, comes from the backend URL

	// Database number to use. Redis supports databases 0-15 by default.
	Database int

	// SocketTimeout bounds every socket read and write. Zero keeps the
	// go-redis default (3s).
	SocketTimeout time.Duration

	// DialTimeout is the timeout for establishing new connections (default: 5s).
	DialTimeout time.Duration

	// PoolSize is the maximum number of socket connections (default: 10).
	PoolSize int

	// MaxRetries is the maximum number of retries before giving up.
	// -1 disables retries.
	MaxRetries int

	// TLS is set for rediss:// URLs.
	TLS bool
}

// ParseURL parses a backend URL of the form
//
//	redis://[user:password@]host:port[/db]?socket_timeout=0.5&db=2
//
// socket_timeout is given in (fractional) seconds and applies to reads and
// writes. Every other query option is interpreted by go-redis.
func ParseURL(raw string) (*Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, cache.NewConfigError("redis.url", "malformed URL", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, cache.NewConfigError("redis.url", fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}

	q := u.Query()
	var socketTimeout time.Duration
	if s := q.Get("socket_timeout"); s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil || secs < 0 {
			return nil, cache.NewConfigError("redis.socket_timeout", fmt.Sprintf("invalid socket timeout %q (want seconds)", s), err)
		}
		socketTimeout = time.Duration(secs * float64(time.Second))
		q.Del("socket_timeout")
	}
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, cache.NewConfigError("redis.url", "invalid URL", err)
	}

	host, portStr, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, cache.NewConfigError("redis.url", "invalid address", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, cache.NewConfigError("redis.port", fmt.Sprintf("invalid port %q", portStr), err)
	}

	cfg := &Config{
		Host:          host,
		Port:          port,
		Username:      opts.Username,
		Password:      opts.Password,
		Database:      opts.DB,
		SocketTimeout: socketTimeout,
		DialTimeout:   opts.DialTimeout,
		PoolSize:      opts.PoolSize,
		MaxRetries:    opts.MaxRetries,
		TLS:           opts.TLSConfig != nil,
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

// Validate performs fail-fast validation of Redis configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return cache.NewConfigError("redis.host", "host is required", nil)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return cache.NewConfigError("redis.port", fmt.Sprintf("invalid port: %d", c.Port), nil)
	}

	if c.Database < 0 || c.Database > maxDatabase {
		return cache.NewConfigError("redis.db", fmt.Sprintf("invalid database number: %d (must be 0-%d)", c.Database, maxDatabase), nil)
	}

	if c.PoolSize <= 0 {
		return cache.NewConfigError("redis.pool_size", fmt.Sprintf("invalid pool size: %d (must be > 0)", c.PoolSize), nil)
	}

	if c.SocketTimeout < 0 {
		return cache.NewConfigError("redis.socket_timeout", "socket timeout cannot be negative", nil)
	}

	if c.DialTimeout < 0 {
		return cache.NewConfigError("redis.dial_timeout", "dial timeout cannot be negative", nil)
	}

	return nil
}

// Address returns the Redis server address in "host:port" format.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Options converts the configuration to go-redis client options.
func (c *Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:         c.Address(),
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.Database,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.SocketTimeout,
		WriteTimeout: c.SocketTimeout,
		PoolSize:     c.PoolSize,
		MaxRetries:   c.MaxRetries,
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{ServerName: c.Host, MinVersion: tls.VersionTLS12}
	}
	return opts
}
