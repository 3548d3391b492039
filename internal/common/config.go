package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const appDir = "election-results"

// Database drivers accepted in DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	OCR        OCRConfig
	Quality    QualityConfig
	Repair     RepairConfig
	Corruption CorruptionConfig
	County     CountyConfig
	Ingest     IngestConfig
	Log        LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	BusyTimeout      time.Duration // sqlite only
}

// OCRConfig holds text extraction and OCR configuration
type OCRConfig struct {
	Enabled         bool
	Pdftotext       string
	Pdftoppm        string
	Tesseract       string
	Lang            string
	DPI             int
	PSM             int
	Parallelism     int
	CacheDir        string
	MinCharsPerPage int
}

// QualityConfig drives data-quality scoring
type QualityConfig struct {
	OverridesFile       string // empty = embedded table
	CrossValidatedSince int
}

// RepairConfig drives the delete-and-reimport path
type RepairConfig struct {
	RegressionThreshold float64
	BackupDir           string
}

type CorruptionConfig struct {
	Signature string
}

// CountyConfig names the county every document belongs to
type CountyConfig struct {
	Name    string
	State   string
	FIPS    string
	Website string
	Towns   []string
}

// IngestConfig sizes batch imports and the watcher
type IngestConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	WatchDebounce  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment values win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "failed to read .env", err)
	}
	dataDir := filepath.Join(xdg.DataHome, appDir)
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", DriverSQLite),
			DSN:              getEnv("DB_URL", filepath.Join(dataDir, "elections.db")),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			BusyTimeout:      getEnvAsDuration("DB_BUSY_TIMEOUT", 5*time.Second),
		},
		OCR: OCRConfig{
			Enabled:         getEnvAsBool("OCR_ENABLED", false),
			Pdftotext:       getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:        getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:       getEnv("TESSERACT_BIN", "tesseract"),
			Lang:            getEnv("OCR_LANG", "eng"),
			DPI:             getEnvAsInt("OCR_DPI", 300),
			PSM:             getEnvAsInt("OCR_PSM", 6),
			Parallelism:     getEnvAsInt("OCR_PARALLELISM", 4),
			CacheDir:        getEnv("OCR_CACHE_DIR", ""),
			MinCharsPerPage: getEnvAsInt("OCR_MIN_CHARS_PER_PAGE", 40),
		},
		Quality: QualityConfig{
			OverridesFile:       getEnv("QUALITY_OVERRIDES_FILE", ""),
			CrossValidatedSince: getEnvAsInt("QUALITY_CROSS_VALIDATED_SINCE", 2016),
		},
		Repair: RepairConfig{
			RegressionThreshold: getEnvAsFloat64("REPAIR_REGRESSION_THRESHOLD", 0.10),
			BackupDir:           getEnv("REPAIR_BACKUP_DIR", filepath.Join(dataDir, "backups")),
		},
		Corruption: CorruptionConfig{
			Signature: getEnv("CORRUPTION_SIGNATURE", `\d+(?:\s+\d+){2,}\s+[\d.]+%\s*\S`),
		},
		County: CountyConfig{
			Name:    getEnv("COUNTY_NAME", "Boone"),
			State:   getEnv("COUNTY_STATE", "IN"),
			FIPS:    getEnv("COUNTY_FIPS", "18011"),
			Website: getEnv("COUNTY_WEBSITE", "https://www.boonecounty.in.gov"),
			Towns:   getEnvAsList("COUNTY_TOWNS", nil),
		},
		Ingest: IngestConfig{
			Workers:        getEnvAsInt("INGEST_WORKERS", 1),
			QueueSize:      getEnvAsInt("INGEST_QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("INGEST_PROCESS_TIMEOUT", 5*time.Minute),
			WatchDebounce:  getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DB_DRIVER", c.Database.Driver, OneOf(DriverSQLite, DriverPostgres))
	v.Field("DB_URL", c.Database.DSN, Required)
	v.Field("OCR_DPI", c.OCR.DPI, IntRange(72, 1200))
	v.Field("OCR_PARALLELISM", c.OCR.Parallelism, IntRange(1, 64))
	v.Field("QUALITY_CROSS_VALIDATED_SINCE", c.Quality.CrossValidatedSince, IntRange(1900, 2100))
	v.Field("REPAIR_REGRESSION_THRESHOLD", c.Repair.RegressionThreshold, FloatRange(0, 1))
	v.Field("CORRUPTION_SIGNATURE", c.Corruption.Signature, Required, CompilesRegexp)
	v.Field("COUNTY_NAME", c.County.Name, Required)
	v.Field("COUNTY_STATE", c.County.State, Required)
	v.Field("INGEST_WORKERS", c.Ingest.Workers, IntRange(1, 64))
	v.Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))
	if err := v.Err(); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}
