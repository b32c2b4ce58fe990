package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Settings keys, shared by the config file and DRAWING_* variables.
const (
	keyBackend     = "backend"
	keyDBPath      = "db_path"
	keyLogLevel    = "log_level"
	keyMetricsAddr = "metrics_addr"
	keyUserID      = "user_id"
	keyProgramID   = "program_id"
	keyFieldIDs    = "accessible_field_ids"
)

var (
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrLogLevelUnknown = errors.New("unknown log level")
	ErrActorMissing    = errors.New("user_id and program_id must not be empty")
)

// Settings holds runtime options for the CLI and the MCP server.
type Settings struct {
	Backend     string `mapstructure:"backend"`
	DBPath      string `mapstructure:"db_path"`
	LogLevel    string `mapstructure:"log_level"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	UserID      string `mapstructure:"user_id"`
	ProgramID   string `mapstructure:"program_id"`
	// FieldIDs restricts which field tree nodes batches may write; empty
	// allows all.
	FieldIDs []int64 `mapstructure:"accessible_field_ids"`
}

// LoadSettings reads config.yaml from the data directory (or configFile when
// set) and overlays DRAWING_* environment variables. A missing config file is
// not an error.
func LoadSettings(configFile string) (Settings, error) {
	v := viper.New()
	v.SetDefault(keyBackend, BackendSQLite)
	v.SetDefault(keyDBPath, "")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyMetricsAddr, "")
	v.SetDefault(keyUserID, "cli")
	v.SetDefault(keyProgramID, "drawing")
	v.SetDefault(keyFieldIDs, []int64{})

	v.SetEnvPrefix("DRAWING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(GetConfigPath()))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if s.DBPath == "" && s.Backend == BackendSQLite {
		s.DBPath = GetDBPath()
	}
	return s, s.Validate()
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrBackendUnknown, s.Backend)
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrLogLevelUnknown, s.LogLevel)
	}
	if strings.TrimSpace(s.UserID) == "" || strings.TrimSpace(s.ProgramID) == "" {
		return ErrActorMissing
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (s Settings) Level() logrus.Level {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
