package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the phone services application.
type Config struct {
	ListenAddress string `mapstructure:"LISTEN_ADDRESS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	// Asterisk Manager Interface
	ManagerAddress  string        `mapstructure:"MANAGER_ADDRESS"`
	ManagerUsername string        `mapstructure:"MANAGER_USERNAME"`
	ManagerSecret   string        `mapstructure:"MANAGER_SECRET"`
	ManagerPoolSize int           `mapstructure:"MANAGER_POOL_SIZE"`
	DialTimeout     time.Duration `mapstructure:"DIAL_TIMEOUT"`
	ActionTimeout   time.Duration `mapstructure:"ACTION_TIMEOUT"`

	// Directory for QRT and PRT report files.
	ReportsDir string `mapstructure:"REPORTS_DIR"`

	// CGI/Execute authentication credentials checked by the phones.
	CGIUsername string `mapstructure:"CGI_USERNAME"`
	CGIPassword string `mapstructure:"CGI_PASSWORD"`

	// Help file served to 7900 series Info button requests.
	PhoneHelpFile string `mapstructure:"PHONE_HELP_FILE"`
}

// Load reads configuration from configs/config.defaults.yaml plus
// SERVICES_* environment variable overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("SERVICES")

	v.SetDefault("LISTEN_ADDRESS", ":6972")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MANAGER_ADDRESS", "localhost:5038")
	v.SetDefault("MANAGER_USERNAME", "asterisk")
	v.SetDefault("MANAGER_SECRET", "asterisk")
	v.SetDefault("MANAGER_POOL_SIZE", 4)
	v.SetDefault("DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("ACTION_TIMEOUT", 5*time.Second)
	v.SetDefault("REPORTS_DIR", "/var/log/cisco")
	v.SetDefault("CGI_USERNAME", "cisco")
	v.SetDefault("CGI_PASSWORD", "cisco")
	v.SetDefault("PHONE_HELP_FILE", "phone_help.xml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional; defaults plus environment are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.ManagerPoolSize < 1 {
		return nil, fmt.Errorf("MANAGER_POOL_SIZE must be at least 1, got %d", cfg.ManagerPoolSize)
	}
	return &cfg, nil
}
