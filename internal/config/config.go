// Package config loads service configuration from flags, environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Mode        string `mapstructure:"mode"`

	// Model configuration
	Model        string  `mapstructure:"model"`
	Threshold    float64 `mapstructure:"threshold"`
	ImageSize    int     `mapstructure:"image_size"`
	MinImageSize int     `mapstructure:"min_image_size"`

	// Upload handling
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	TestImagesDir  string `mapstructure:"test_images_dir"`

	// Cache configuration
	Redis         string `mapstructure:"redis"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("mode", "release")
	v.SetDefault("model", "pneumonia_model.onnx")
	v.SetDefault("threshold", 0.5)
	v.SetDefault("image_size", 224)
	v.SetDefault("min_image_size", 50)
	v.SetDefault("max_upload_bytes", 16*1024*1024)
	v.SetDefault("test_images_dir", "test_images")
	v.SetDefault("redis", "")
	v.SetDefault("cache_ttl_hours", 24)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PNEUMONET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also honor the OTEL standard env var
	if endpoint := viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("otel_endpoint", endpoint)
		v.Set("otel_enabled", true)
	}
}

// Load loads configuration from environment variables and an optional
// config file. Priority (highest to lowest): env vars > config file > defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pneumonet/")
	v.AddConfigPath("$HOME/.pneumonet")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	switch c.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("invalid mode: %q (must be release, debug or test)", c.Mode)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", c.Threshold)
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("invalid image_size: %d", c.ImageSize)
	}
	if c.MinImageSize < 0 {
		return fmt.Errorf("invalid min_image_size: %d", c.MinImageSize)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes: %d", c.MaxUploadBytes)
	}
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model path is required when not using mock inference")
	}
	return nil
}
