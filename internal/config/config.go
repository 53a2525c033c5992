package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Admin    AdminConfig    `yaml:"admin"`
	Images   ImagesConfig   `yaml:"images"`
	Upload   UploadConfig   `yaml:"upload"`
	Gallery  GalleryConfig  `yaml:"gallery"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"dbname"`
	SSLMode    string `yaml:"sslmode"`
	Migrations string `yaml:"migrations"` // path to migration files
}

// AWSConfig holds S3-compatible object storage configuration
type AWSConfig struct {
	Region     string `yaml:"region"`
	S3Bucket   string `yaml:"s3_bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`    // custom endpoint for S3-compatible providers
	PublicBase string `yaml:"public_base"` // base URL photos are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// AdminConfig holds admin-console configuration
type AdminConfig struct {
	SessionDays int `yaml:"session_days"`
}

// ImagesConfig holds responsive image resolution configuration
type ImagesConfig struct {
	TransformsEnabled bool   `yaml:"transforms_enabled"`
	StorageBase       string `yaml:"storage_base"` // public storage base, e.g. https://cdn.example.com/storage/v1
	Bucket            string `yaml:"bucket"`
	Widths            []int  `yaml:"widths"`
	Qualities         []int  `yaml:"qualities"`
	FallbackWidth     int    `yaml:"fallback_width"`
	FallbackQuality   int    `yaml:"fallback_quality"`
}

// UploadConfig holds the admin upload pipeline configuration
type UploadConfig struct {
	MaxWidth        int     `yaml:"max_width"`
	Quality         float64 `yaml:"quality"`
	PlaceholderSize int     `yaml:"placeholder_size"`
	Concurrency     int     `yaml:"concurrency"`
	PreferWebP      bool    `yaml:"prefer_webp"`
}

// GalleryConfig holds gallery state configuration
type GalleryConfig struct {
	StateFile string `yaml:"state_file"` // persisted viewer engagement state
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Images.Widths) == 0 {
		c.Images.Widths = []int{640, 1024, 1600}
	}
	if len(c.Images.Qualities) == 0 {
		c.Images.Qualities = []int{70, 72, 75}
	}
	if c.Images.FallbackWidth == 0 {
		c.Images.FallbackWidth = c.Images.Widths[len(c.Images.Widths)-1]
	}
	if c.Images.FallbackQuality == 0 {
		c.Images.FallbackQuality = c.Images.Qualities[len(c.Images.Qualities)-1]
	}
	if c.Upload.MaxWidth == 0 {
		c.Upload.MaxWidth = 2048
	}
	if c.Upload.Quality == 0 {
		c.Upload.Quality = 0.85
	}
	if c.Upload.PlaceholderSize == 0 {
		c.Upload.PlaceholderSize = 20
	}
	if c.Upload.Concurrency == 0 {
		c.Upload.Concurrency = 3
	}
	if c.Admin.SessionDays == 0 {
		c.Admin.SessionDays = 7
	}
	if c.Gallery.StateFile == "" {
		c.Gallery.StateFile = "gallery_state.json"
	}
	if c.Database.Migrations == "" {
		c.Database.Migrations = "migrations"
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the PostgreSQL connection URL used by the migration runner
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
