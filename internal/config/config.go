package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete gateway configuration
// The structure matches the config.yaml file and can be overridden by environment variables

type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Auth    AuthConfig    `json:"auth" mapstructure:"auth"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Engines EnginesConfig `json:"engines" mapstructure:"engines"`
}

// ServerConfig contains server-specific configuration

type ServerConfig struct {
	Addr            string `json:"addr" mapstructure:"addr"`
	ReadTimeout     string `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    string `json:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout string `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// AuthConfig contains authentication configuration

type AuthConfig struct {
	Token        string   `json:"token" mapstructure:"token"`
	AllowedTools []string `json:"allowed_tools" mapstructure:"allowed_tools"`
}

// LogConfig controls the zap logger

type LogConfig struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

// StorageConfig locates the SQLite databases

type StorageConfig struct {
	AssessmentDB string `json:"assessment_db" mapstructure:"assessment_db"`
	AuditDB      string `json:"audit_db" mapstructure:"audit_db"`
}

// EnginesConfig contains the risk engine configuration

type EnginesConfig struct {
	Contract   ContractEngineConfig   `json:"contract" mapstructure:"contract"`
	Litigation LitigationEngineConfig `json:"litigation" mapstructure:"litigation"`
	Batch      BatchConfig            `json:"batch" mapstructure:"batch"`
}

type ContractEngineConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	CatalogPath string `json:"catalog_path" mapstructure:"catalog_path"`
}

type LitigationEngineConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// BatchConfig bounds batch contract analysis

type BatchConfig struct {
	MaxParallel int `json:"max_parallel" mapstructure:"max_parallel"`
	MaxItems    int `json:"max_items" mapstructure:"max_items"`
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.vakil")
	v.SetEnvPrefix("VAKIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Resolve paths (expand ~)
	cfg.Storage.AssessmentDB = resolvePath(cfg.Storage.AssessmentDB)
	cfg.Storage.AuditDB = resolvePath(cfg.Storage.AuditDB)
	cfg.Engines.Contract.CatalogPath = resolvePath(cfg.Engines.Contract.CatalogPath)
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.ADDR", ":8080")
	v.SetDefault("SERVER.READ_TIMEOUT", "15s")
	v.SetDefault("SERVER.WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER.SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("AUTH.TOKEN", "default-secret-token")
	v.SetDefault("AUTH.ALLOWED_TOOLS", []string{"*"})

	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.DEVELOPMENT", false)

	v.SetDefault("STORAGE.ASSESSMENT_DB", "~/.vakil/assessments.db")
	v.SetDefault("STORAGE.AUDIT_DB", "~/.vakil/audit.db")

	// Engine defaults
	v.SetDefault("ENGINES.CONTRACT.ENABLED", true)
	v.SetDefault("ENGINES.CONTRACT.CATALOG_PATH", "")
	v.SetDefault("ENGINES.LITIGATION.ENABLED", true)
	v.SetDefault("ENGINES.BATCH.MAX_PARALLEL", 4)
	v.SetDefault("ENGINES.BATCH.MAX_ITEMS", 50)
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
