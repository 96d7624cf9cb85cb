package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/procurehq/vendorscout/internal/registry"
)

// Config is the root configuration for the service, loaded from an optional
// config file plus VENDORSCOUT_* environment overrides.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Discovery DiscoveryConfig   `mapstructure:"discovery"`
	Fetch     FetchConfig       `mapstructure:"fetch"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Archive   ArchiveConfig     `mapstructure:"archive"`
	Vendors   []registry.Vendor `mapstructure:"vendors"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DiscoveryConfig struct {
	// TopN caps how many candidate URLs a single run retrieves.
	TopN int `mapstructure:"top_n"`
	// MaxPageSize bounds the page_size a caller may request.
	MaxPageSize int `mapstructure:"max_page_size"`
	// Concurrency bounds the extract/validate worker pool.
	Concurrency int `mapstructure:"concurrency"`
	// TTL is how long a ranked candidate list stays cached.
	TTL time.Duration `mapstructure:"ttl"`
	// StrictMode drops candidates whose extraction failed instead of
	// synthesizing a registry-derived record.
	StrictMode bool `mapstructure:"strict_mode"`
	// MinSpecMatchRatio is the fraction of required specs a candidate must
	// match, rounded up, never below one spec.
	MinSpecMatchRatio float64 `mapstructure:"min_spec_match_ratio"`
}

type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRedirects      int           `mapstructure:"max_redirects"`
	Fingerprint       string        `mapstructure:"fingerprint"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Jitter            float64       `mapstructure:"jitter"`
	Proxies           []string      `mapstructure:"proxies"`
	UserAgents        []string      `mapstructure:"user_agents"`
}

type CacheConfig struct {
	// Backend selects "memory" or "redis".
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type ArchiveConfig struct {
	// Backend selects "none", "sqlite", "postgres" or "json".
	Backend string `mapstructure:"backend"`
	// DSN is the sqlite path, postgres connection string, or NDJSON file path.
	DSN string `mapstructure:"dsn"`
}

// Load reads configuration from path (optional) and the environment and
// returns a fully defaulted Config.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("discovery.top_n", 120)
	v.SetDefault("discovery.max_page_size", 50)
	v.SetDefault("discovery.concurrency", 8)
	v.SetDefault("discovery.ttl", time.Hour)
	v.SetDefault("discovery.strict_mode", true)
	v.SetDefault("discovery.min_spec_match_ratio", 0.25)
	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.fingerprint", "chrome")
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.jitter", 0.2)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("archive.backend", "none")

	v.SetEnvPrefix("vendorscout")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Discovery.TopN <= 0 {
		return fmt.Errorf("discovery.top_n must be positive, got %d", c.Discovery.TopN)
	}
	if c.Discovery.MaxPageSize <= 0 {
		return fmt.Errorf("discovery.max_page_size must be positive, got %d", c.Discovery.MaxPageSize)
	}
	if c.Discovery.Concurrency <= 0 {
		return fmt.Errorf("discovery.concurrency must be positive, got %d", c.Discovery.Concurrency)
	}
	if r := c.Discovery.MinSpecMatchRatio; r < 0 || r > 1 {
		return fmt.Errorf("discovery.min_spec_match_ratio must be in [0,1], got %g", r)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Archive.Backend {
	case "none", "sqlite", "postgres", "json":
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	return nil
}

// Registry builds the vendor registry from configuration, falling back to
// the built-in vendor table when the config file lists none.
func (c *Config) Registry() *registry.Registry {
	if len(c.Vendors) == 0 {
		return registry.Default()
	}
	return registry.New(c.Vendors)
}
