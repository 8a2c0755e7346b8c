package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Journal store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

type JournalConfig struct {
	Store string `yaml:"store"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type IngestConfig struct {
	FileWorkers int `yaml:"file_workers"`
	// ImportDir bounds the paths the HTTP API may import from.
	ImportDir string `yaml:"import_dir"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "password",
			Name:     "tradejournal",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Journal: JournalConfig{
			Store: StoreFile,
			File:  "journal.json",
		},
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Ingest: IngestConfig{FileWorkers: 4, ImportDir: "."},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if path is not empty), then environment variables. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.TimeZone = getEnv("DB_TIMEZONE", c.Database.TimeZone)
	c.Journal.Store = getEnv("JOURNAL_STORE", c.Journal.Store)
	c.Journal.File = getEnv("JOURNAL_FILE", c.Journal.File)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Ingest.ImportDir = getEnv("IMPORT_DIR", c.Ingest.ImportDir)

	if v, ok := os.LookupEnv("FILE_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FILE_WORKERS %q: %w", v, err)
		}
		c.Ingest.FileWorkers = n
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Journal.Store {
	case StoreMemory, StorePostgres:
	case StoreFile:
		if c.Journal.File == "" {
			return errors.New("journal.file is required for the file store")
		}
	default:
		return fmt.Errorf("unknown journal store %q (want memory, file or postgres)", c.Journal.Store)
	}
	if c.Ingest.FileWorkers <= 0 {
		return fmt.Errorf("ingest.file_workers must be positive, got %d", c.Ingest.FileWorkers)
	}
	if c.Ingest.ImportDir == "" {
		return errors.New("ingest.import_dir is required")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.TimeZone)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
