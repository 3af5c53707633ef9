// Package config loads the core's runtime settings: graph store endpoint,
// per-upstream URL/token pairs, and traversal depth/TTL bounds, layered
// from defaults, a YAML file, and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TDB       TDBConfig                 `yaml:"tdb"`
	Upstream  map[string]UpstreamConfig `yaml:"upstream"`
	Traversal TraversalConfig           `yaml:"traversal"`
	HTTP      HTTPConfig                `yaml:"http"`
	Log       LogConfig                 `yaml:"log"`
	Cache     CacheConfig               `yaml:"cache"`
	Staging   StagingConfig             `yaml:"staging"`
}

// StagingConfig configures the optional write-behind staging layer
// (stagingcache.Cache) in front of the selected tdb backend. Unset DSN
// means BatchCommit writes straight to the backend with no staging table.
type StagingConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// CacheConfig configures the facade's optional shared Redis freshness
// cache, consulted ahead of the graph store round trip for the TTL check.
// It holds timestamps only, never graph data, so consistency still comes
// from the store. Unset RedisURL means the facade reads updated_at directly
// from the store on every call.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
}

// TDBConfig configures the graph store endpoint and auth, plus which
// graphstore.Backend implementation to dial. Backend is one of "memory" (default), "http"
// (httpbackend, the managed wire-protocol endpoint at Host), or "neo4j"
// (neo4jbackend, a direct Bolt connection using Host as the bolt:// URI).
type TDBConfig struct {
	Backend            string `yaml:"backend"`
	Host               string `yaml:"host"`
	IdentityGraphToken string `yaml:"identity_graph_token"`
	GraphName          string `yaml:"graph_name"`
	Neo4jUsername      string `yaml:"neo4j_username"`
	Neo4jPassword      string `yaml:"neo4j_password"`
	Neo4jDatabase      string `yaml:"neo4j_database"`
}

// UpstreamConfig is one entry of upstream.<name>.{url,token}.
type UpstreamConfig struct {
	URL           string  `yaml:"url"`
	Token         string  `yaml:"token"`
	RateLimitPerS float64 `yaml:"rate_limit_per_s"`
}

type TraversalConfig struct {
	DepthDefault int           `yaml:"depth_default"`
	DepthMax     int           `yaml:"depth_max"`
	TTLSeconds   int           `yaml:"ttl_seconds"`
	MaxVertices  int           `yaml:"max_vertices"`
	MaxInFlight  int           `yaml:"max_inflight"`
	Timeout      time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	TimeoutMS int `yaml:"timeout_ms"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
	OutputFile string `yaml:"output_file"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		TDB: TDBConfig{Backend: "memory", Host: "http://localhost:9000", GraphName: "IdentityGraph"},
		Upstream: map[string]UpstreamConfig{
			"warpcast": {URL: "https://api.warpcast.com", RateLimitPerS: 5},
			"rss3":     {URL: "https://pregod.rss3.dev/v1/notes", RateLimitPerS: 5},
			"ens":      {URL: "https://api.thegraph.com/subgraphs/name/ensdomains/ens", RateLimitPerS: 5},
			"github":   {RateLimitPerS: 5},
		},
		Traversal: TraversalConfig{
			DepthDefault: 2,
			DepthMax:     5,
			TTLSeconds:   3600,
			MaxVertices:  500,
			MaxInFlight:  8,
			Timeout:      30 * time.Second,
		},
		HTTP:    HTTPConfig{TimeoutMS: 10_000},
		Log:     LogConfig{Level: "info", JSONFormat: true},
		Cache:   CacheConfig{},
		Staging: StagingConfig{},
	}
}

// Load loads configuration from a YAML file, layering environment variables
// on top (prefix RELATIONGRAPH_).
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("tdb", cfg.TDB)
	v.SetDefault("upstream", cfg.Upstream)
	v.SetDefault("traversal", cfg.Traversal)
	v.SetDefault("http", cfg.HTTP)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("staging", cfg.Staging)

	v.SetEnvPrefix("RELATIONGRAPH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("TDB_HOST"); host != "" {
		cfg.TDB.Host = host
	}
	if token := os.Getenv("TDB_TOKEN"); token != "" {
		cfg.TDB.IdentityGraphToken = token
	}
}

// Save writes the configuration to path as YAML, preserving the struct's
// yaml tags so a saved file round-trips through Load.
func (c *Config) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, out, 0o644)
}
