// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Fabric  FabricConfig  `mapstructure:"fabric"`
	Search  SearchConfig  `mapstructure:"search"`
	Graph   GraphConfig   `mapstructure:"graph"`
	PowerBI PowerBIConfig `mapstructure:"powerbi"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	ListenAddr  string `mapstructure:"listen_addr"`
}

// GatewayConfig holds the settings of the query pipeline itself.
type GatewayConfig struct {
	MaxRows        int    `mapstructure:"max_rows"`
	DefaultAgent   string `mapstructure:"default_agent"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// FabricConfig holds settings for the warehouse SQL backend.
type FabricConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	SQLMode  string `mapstructure:"sql_mode"` // "http" or "direct"
	DSN      string `mapstructure:"dsn"`      // direct mode only
	Timeout  int    `mapstructure:"timeout"`  // milliseconds
}

// SearchConfig holds settings for the contract document index.
type SearchConfig struct {
	Provider   string   `mapstructure:"provider"` // "rest" or "elasticsearch"
	Endpoint   string   `mapstructure:"endpoint"`
	Index      string   `mapstructure:"index"`
	APIKey     string   `mapstructure:"api_key"`
	APIVersion string   `mapstructure:"api_version"`
	Semantic   bool     `mapstructure:"semantic"`
	Hybrid     bool     `mapstructure:"hybrid"`
	Addresses  []string `mapstructure:"addresses"` // elasticsearch only
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Timeout    int      `mapstructure:"timeout"` // milliseconds
}

// GraphConfig holds settings for the directory/mail search backend.
type GraphConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// PowerBIConfig holds the deep-link settings. All fields optional; links are
// skipped entirely when workspace or report is empty.
type PowerBIConfig struct {
	WorkspaceID string `mapstructure:"workspace_id"`
	ReportID    string `mapstructure:"report_id"`
	DateColumn  string `mapstructure:"date_column"`
}

// CacheConfig holds the optional Redis result cache settings.
type CacheConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetRequestTimeout returns the per-request budget as a duration.
func (g GatewayConfig) GetRequestTimeout() time.Duration {
	if g.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.RequestTimeout) * time.Millisecond
}

// GetTimeout returns the fabric call timeout as a duration.
func (f FabricConfig) GetTimeout() time.Duration {
	if f.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(f.Timeout) * time.Millisecond
}

// GetTimeout returns the search call timeout as a duration.
func (s SearchConfig) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.Timeout) * time.Millisecond
}

// GetTimeout returns the graph call timeout as a duration.
func (g GraphConfig) GetTimeout() time.Duration {
	if g.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.Timeout) * time.Millisecond
}

// GetTTL returns the cache TTL as a duration.
func (c CacheConfig) GetTTL() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTL) * time.Second
}

// Enabled reports whether the cache is configured at all.
func (c CacheConfig) Enabled() bool {
	return c.Address != ""
}

func validateConfig(cfg *Config) error {
	if cfg.Gateway.MaxRows < 0 {
		return fmt.Errorf("gateway.max_rows must not be negative")
	}
	if cfg.Fabric.SQLMode != "" && cfg.Fabric.SQLMode != "http" && cfg.Fabric.SQLMode != "direct" {
		return fmt.Errorf("fabric.sql_mode must be \"http\" or \"direct\", got %q", cfg.Fabric.SQLMode)
	}
	if cfg.Fabric.SQLMode == "direct" && cfg.Fabric.DSN == "" {
		return fmt.Errorf("fabric.dsn is required when fabric.sql_mode is \"direct\"")
	}
	if cfg.Search.Provider != "" && cfg.Search.Provider != "rest" && cfg.Search.Provider != "elasticsearch" {
		return fmt.Errorf("search.provider must be \"rest\" or \"elasticsearch\", got %q", cfg.Search.Provider)
	}
	if cfg.Search.Provider == "elasticsearch" && len(cfg.Search.Addresses) == 0 {
		return fmt.Errorf("search.addresses is required when search.provider is \"elasticsearch\"")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "agent-gateway"
	}
	if cfg.App.ListenAddr == "" {
		cfg.App.ListenAddr = ":8080"
	}
	if cfg.Gateway.MaxRows == 0 {
		cfg.Gateway.MaxRows = 50
	}
	if cfg.Gateway.DefaultAgent == "" {
		cfg.Gateway.DefaultAgent = "domain"
	}
	if cfg.Fabric.SQLMode == "" {
		cfg.Fabric.SQLMode = "http"
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "rest"
	}
	if cfg.Search.APIVersion == "" {
		cfg.Search.APIVersion = "2021-04-30-Preview"
	}
	if cfg.Graph.Endpoint == "" {
		cfg.Graph.Endpoint = "https://graph.microsoft.com/v1.0"
	}
	if cfg.PowerBI.DateColumn == "" {
		cfg.PowerBI.DateColumn = "vw_Variance/ShipDate"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
