package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port    int           `mapstructure:"port"`
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	// Path is the on-device sqlite file holding the schedule snapshot and
	// notification history.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	// Enabled turns the day-listing response cache on. The app works fully
	// without it.
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type FeedConfig struct {
	// BaseURL is the orientation feed endpoint root.
	BaseURL string `mapstructure:"base_url"`
	// PollSpec is the cron expression for the periodic incremental sync.
	PollSpec string `mapstructure:"poll_spec"`
	// Timeout bounds one feed request.
	Timeout time.Duration `mapstructure:"timeout"`
}

type RemindersConfig struct {
	// DefaultPolicy is used before the user picks one: All, Required or None.
	DefaultPolicy string `mapstructure:"default_policy"`
	// DefaultLeadMinutes is how long before an event the reminder fires.
	DefaultLeadMinutes int `mapstructure:"default_lead_minutes"`
	// DefaultStudentType decides which "required" flag applies: FirstYear or
	// Transfer.
	DefaultStudentType string `mapstructure:"default_student_type"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// If CONFIG_FILE environment variable is set, use it
	if envConfigFile := os.Getenv("CONFIG_FILE"); envConfigFile != "" {
		configPath = envConfigFile
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		dir := filepath.Dir(configPath)
		file := filepath.Base(configPath)
		ext := filepath.Ext(file)
		name := strings.TrimSuffix(file, ext)

		v.AddConfigPath(dir)
		v.SetConfigName(name)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./pkg/config")
		v.SetConfigName("config")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error loading config file: %v", err)
		}
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override with environment variables if they exist
	envVars := map[string]string{
		"server.port":                    "SERVER_PORT",
		"server.mode":                    "SERVER_MODE",
		"server.timeout":                 "SERVER_TIMEOUT",
		"database.path":                  "DB_PATH",
		"redis.enabled":                  "REDIS_ENABLED",
		"redis.host":                     "REDIS_HOST",
		"redis.port":                     "REDIS_PORT",
		"redis.password":                 "REDIS_PASSWORD",
		"redis.db":                       "REDIS_DB",
		"feed.base_url":                  "FEED_BASE_URL",
		"feed.poll_spec":                 "FEED_POLL_SPEC",
		"feed.timeout":                   "FEED_TIMEOUT",
		"reminders.default_policy":       "REMINDERS_DEFAULT_POLICY",
		"reminders.default_lead_minutes": "REMINDERS_DEFAULT_LEAD_MINUTES",
		"reminders.default_student_type": "REMINDERS_DEFAULT_STUDENT_TYPE",
		"logging.level":                  "LOG_LEVEL",
		"logging.format":                 "LOG_FORMAT",
	}

	for configKey, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			switch envVar {
			case "SERVER_PORT", "REDIS_PORT", "REDIS_DB", "REMINDERS_DEFAULT_LEAD_MINUTES":
				if intVal, err := strconv.Atoi(value); err == nil {
					v.Set(configKey, intVal)
				}
			case "SERVER_TIMEOUT", "FEED_TIMEOUT":
				if d, err := time.ParseDuration(value); err == nil {
					v.Set(configKey, d)
				}
			case "REDIS_ENABLED":
				if value == "true" || value == "1" {
					v.Set(configKey, true)
				} else if value == "false" || value == "0" {
					v.Set(configKey, false)
				}
			default:
				v.Set(configKey, value)
			}
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("database.path", "oweek.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("feed.base_url", "https://oweek.cornelldti.org")
	v.SetDefault("feed.poll_spec", "@every 30m")
	v.SetDefault("feed.timeout", 30*time.Second)
	v.SetDefault("reminders.default_policy", "All")
	v.SetDefault("reminders.default_lead_minutes", 120)
	v.SetDefault("reminders.default_student_type", "FirstYear")
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
