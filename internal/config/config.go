package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every setting of the API server and importer.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes is the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// DatabaseConfig selects the dataset store. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Source string `mapstructure:"source"`
}

type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config points at an S3 compatible bucket. An empty Bucket disables archiving.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Enabled reports whether uploads should be archived.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// AuthConfig enables bearer token auth on the API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig limits requests per client IP. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type PipelineConfig struct {
	PreviewRows       int     `mapstructure:"preview_rows"`
	ClusterCellSize   float64 `mapstructure:"cluster_cell_size"`
	DetectSampleSize  int     `mapstructure:"detect_sample_size"`
	SimplifyTolerance float64 `mapstructure:"simplify_tolerance"`
	TimezoneLookup    bool    `mapstructure:"timezone_lookup"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads app.yaml from path. Environment variables prefixed with
// GEO_ override file values, e.g. GEO_DATABASE_SOURCE.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.source", "geoanalytics.db")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.prefix", "uploads")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("ratelimit.rps", 0)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("pipeline.preview_rows", 10)
	v.SetDefault("pipeline.cluster_cell_size", 0.01)
	v.SetDefault("pipeline.detect_sample_size", 20)
	v.SetDefault("pipeline.simplify_tolerance", 0)
	v.SetDefault("pipeline.timezone_lookup", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("config: server.max_upload_mb must be positive")
	}
	if c.Pipeline.ClusterCellSize <= 0 {
		return fmt.Errorf("config: pipeline.cluster_cell_size must be positive")
	}
	return nil
}
