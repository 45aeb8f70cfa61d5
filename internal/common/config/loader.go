// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like FABRIC_ENDPOINT or SEARCH_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// local runs and package tests resolve the same secrets.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in the YAML.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills settings that are commonly supplied as plain
// environment variables rather than through the YAML tree.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Fabric.Endpoint == "" {
		if val := os.Getenv("FABRIC_ENDPOINT"); val != "" {
			cfg.Fabric.Endpoint = strings.TrimSpace(val)
		}
	}
	if cfg.Fabric.Token == "" {
		if val := os.Getenv("FABRIC_TOKEN"); val != "" {
			cfg.Fabric.Token = strings.TrimSpace(val)
		}
	}
	if cfg.Fabric.DSN == "" {
		if val := os.Getenv("FABRIC_DSN"); val != "" {
			cfg.Fabric.DSN = strings.TrimSpace(val)
		}
	}
	if cfg.Search.Endpoint == "" {
		if val := os.Getenv("SEARCH_ENDPOINT"); val != "" {
			cfg.Search.Endpoint = strings.TrimSpace(val)
		}
	}
	if cfg.Search.Index == "" {
		if val := os.Getenv("SEARCH_INDEX"); val != "" {
			cfg.Search.Index = strings.TrimSpace(val)
		}
	}
	if cfg.Search.APIKey == "" {
		if val := os.Getenv("SEARCH_API_KEY"); val != "" {
			cfg.Search.APIKey = strings.TrimSpace(val)
		}
	}
	if cfg.Graph.Token == "" {
		if val := os.Getenv("GRAPH_TOKEN"); val != "" {
			cfg.Graph.Token = strings.TrimSpace(val)
		}
	}
	if cfg.PowerBI.WorkspaceID == "" {
		if val := os.Getenv("PBI_WORKSPACE_ID"); val != "" {
			cfg.PowerBI.WorkspaceID = val
		}
	}
	if cfg.PowerBI.ReportID == "" {
		if val := os.Getenv("PBI_REPORT_ID"); val != "" {
			cfg.PowerBI.ReportID = val
		}
	}
	if cfg.Cache.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Cache.Address = val
		}
	}
}
