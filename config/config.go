package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioSSL       bool

	// PipelineBucket holds the pipeline's own artifacts; ArchiveBucket is the
	// external web-archive container read with byte ranges.
	PipelineBucket string
	ArchiveBucket  string

	ExtractInputPrefix  string
	ExtractOutputPrefix string
	CleanOutputKey      string
	AnalysisOutputKey   string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MetricsPort    string

	Filter   FilterRules
	Segments SegmentRules
}

// FilterRules is the fixed policy deciding whether a cleaned record is real
// product data. The lists mirror the error pages and promotional landing
// pages observed in the crawl.
type FilterRules struct {
	ErrorTitles    []string
	PromoTitles    []string
	MinPrice       float64
	ExcludedPrices []float64
}

// SegmentRules defines the price tier boundaries. Prices below TierFloor
// belong to no tier at all.
type SegmentRules struct {
	TierFloor float64
	LowMax    float64
	MidMax    float64
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "admin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "admin123"),
		MinioSSL:       getEnvBool("MINIO_SSL", false),

		PipelineBucket: getEnv("PIPELINE_BUCKET", "common-crawl-s3"),
		ArchiveBucket:  getEnv("ARCHIVE_BUCKET", "commoncrawl"),

		ExtractInputPrefix:  getEnv("EXTRACT_INPUT_PREFIX", "athena-results/data_extraction/"),
		ExtractOutputPrefix: getEnv("EXTRACT_OUTPUT_PREFIX", "athena-results/cleaning/"),
		CleanOutputKey:      getEnv("CLEAN_OUTPUT_KEY", "athena-results/analysis/combined_cleaned_data.json"),
		AnalysisOutputKey:   getEnv("ANALYSIS_OUTPUT_KEY", "athena-results/final/analysis_summary.json"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "pipeline"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "pipeline123"),
		PostgresDB:       getEnv("POSTGRES_DB", "inflation_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),
		MetricsPort:    getEnv("METRICS_PORT", ""),

		Filter: FilterRules{
			ErrorTitles: []string{
				"301 Moved Permanently",
				"Robot Check",
				"Sorry! Something went wrong!",
				"No Title Found",
			},
			PromoTitles: []string{
				"amazon prime", "amazon prime day", "prime",
				"amazon best sellers", "best sellers",
				"cyber monday", "black friday", "error page",
			},
			MinPrice:       99,
			ExcludedPrices: []float64{2020, 2021, 2022, 2023, 2024, 1996},
		},
		Segments: SegmentRules{
			TierFloor: 100,
			LowMax:    300,
			MidMax:    700,
		},
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
