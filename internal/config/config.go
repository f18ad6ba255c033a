package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "PERSONDB"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "persons.db"
	defaultSourcePath   = "persons.json"
	defaultLogLevel     = "info"
	defaultDigitPoints  = 2
)

// AppConfig captures runtime configuration for the persondb CLI and the
// optional report server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	SourcePath    string
	LogLevel      string
	CellFromPhone bool
	DigitPoints   int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("source.path", defaultSourcePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	// Historical ingestion derived cell from phone; existing databases
	// depend on that, so it stays the default.
	configViper.SetDefault("ingest.cell_from_phone", true)
	configViper.SetDefault("scoring.digit_points", defaultDigitPoints)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		SourcePath:    configViper.GetString("source.path"),
		LogLevel:      configViper.GetString("log.level"),
		CellFromPhone: configViper.GetBool("ingest.cell_from_phone"),
		DigitPoints:   configViper.GetInt("scoring.digit_points"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.SourcePath) == "" {
		return fmt.Errorf("source.path is required")
	}
	if c.DigitPoints != 1 && c.DigitPoints != 2 {
		return fmt.Errorf("scoring.digit_points must be 1 or 2, got %d", c.DigitPoints)
	}
	return nil
}
