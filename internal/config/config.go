package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SOLARHUB_PORT
const EnvPrefix = "SOLARHUB"

// Settings holds the runtime configuration shared by the CLI and the daemon
type Settings struct {
	DBPath         string
	Port           int
	HouseholdID    string
	WeatherBaseURL string
	WeatherTimeout time.Duration
}

// Dir returns the default configuration directory ($HOME/.solarhub)
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".solarhub"), nil
}

// Init points v at cfgFile, or at config.yaml in the default directory,
// and reads it. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	dbPath := "solarhub.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "solarhub.db")
	}

	v.SetDefault("db", dbPath)
	v.SetDefault("port", 8080)
	v.SetDefault("household", "default")
	v.SetDefault("weather.base_url", "")
	v.SetDefault("weather.timeout", 30*time.Second)
}

// Load returns the typed settings held by v
func Load(v *viper.Viper) Settings {
	return Settings{
		DBPath:         v.GetString("db"),
		Port:           v.GetInt("port"),
		HouseholdID:    v.GetString("household"),
		WeatherBaseURL: v.GetString("weather.base_url"),
		WeatherTimeout: v.GetDuration("weather.timeout"),
	}
}
