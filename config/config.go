package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, Postgres connection details, the market-data provider,
// and the ingestion schedule.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=5000
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=stockpulse
//	POSTGRES_SSLMODE=disable
//	ALPHAVANTAGE_API_KEY=demo
//	SYMBOLS=IBM,AAPL
//	INGEST_WEEKS=2
type Config struct {
	Server       ServerConfig
	Postgres     PostgresConfig
	AlphaVantage AlphaVantageConfig
	Ingestion    IngestionConfig
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// AlphaVantageConfig holds the market-data provider settings.
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
}

// IngestionConfig controls which symbols are ingested, how far back,
// and on what schedule.
//
// Cron uses the six-field (seconds-first) format of robfig/cron. The
// default fires at 18:30 on weekdays, after the US market close.
type IngestionConfig struct {
	Symbols []string
	Weeks   int
	Cron    string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all required fields.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Constructs the PostgreSQL connection string (DSN).
//   - Calls validateConfig() to ensure required fields are present.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message. A missing provider API key only logs a
//     warning: the query API works without it, ingestion does not.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "5000")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "stockpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("ALPHAVANTAGE_API_KEY", "")
	viper.SetDefault("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co")

	viper.SetDefault("SYMBOLS", "IBM,AAPL")
	viper.SetDefault("INGEST_WEEKS", 2)
	viper.SetDefault("INGEST_CRON", "0 30 18 * * 1-5")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  viper.GetString("ALPHAVANTAGE_API_KEY"),
			BaseURL: viper.GetString("ALPHAVANTAGE_BASE_URL"),
		},
		Ingestion: IngestionConfig{
			Symbols: splitSymbols(viper.GetString("SYMBOLS")),
			Weeks:   viper.GetInt("INGEST_WEEKS"),
			Cron:    viper.GetString("INGEST_CRON"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// splitSymbols parses the comma-separated SYMBOLS value, trimming
// whitespace and uppercasing each entry.
func splitSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.ToUpper(strings.TrimSpace(part))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// This avoids unexpected runtime failures due to incomplete configuration.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if len(AppConfig.Ingestion.Symbols) == 0 {
		missing = append(missing, "SYMBOLS")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}

	if AppConfig.AlphaVantage.APIKey == "" {
		log.Println("warning: ALPHAVANTAGE_API_KEY is not set; ingestion runs will fail until it is provided")
	}
}
