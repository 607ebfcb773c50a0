package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scoutbase/scout/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	DBPath                  string
	GridAPIKey              string
	GridBaseURL             string
	GridTimeout             time.Duration
	GridMaxRetries          int
	GridRetryBaseDelay      time.Duration
	GridCircuitEnabled      bool
	GridCircuitFailureCount int
	GridCircuitOpenTimeout  time.Duration
	GridCircuitHalfOpenReq  int
	SeriesCacheTTL          time.Duration
	EconomyEcoThreshold     int
	EconomyForceThreshold   int
	EconomyFullThreshold    int
	IngestWorkers           int
	IngestCallTimeout       time.Duration
	UptraceEnabled          bool
	UptraceDSN              string
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string
	PyroscopeAppName        string
	PyroscopeAuthToken      string
	PyroscopeUploadRate     time.Duration
	LogLevel                logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WRITE_TIMEOUT: %w", err)
	}

	gridTimeout, err := time.ParseDuration(getEnv("GRID_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_TIMEOUT: %w", err)
	}
	if gridTimeout <= 0 {
		return Config{}, fmt.Errorf("GRID_TIMEOUT must be > 0")
	}
	gridMaxRetries, err := getEnvAsInt("GRID_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_MAX_RETRIES: %w", err)
	}
	if gridMaxRetries < 0 {
		return Config{}, fmt.Errorf("GRID_MAX_RETRIES must be >= 0")
	}
	gridRetryBaseDelay, err := time.ParseDuration(getEnv("GRID_RETRY_BASE_DELAY", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_RETRY_BASE_DELAY: %w", err)
	}
	if gridRetryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("GRID_RETRY_BASE_DELAY must be > 0")
	}

	gridCircuitEnabled, err := strconv.ParseBool(getEnv("GRID_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_CIRCUIT_ENABLED: %w", err)
	}
	gridCircuitFailureCount, err := getEnvAsInt("GRID_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if gridCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("GRID_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	gridCircuitOpenTimeout, err := time.ParseDuration(getEnv("GRID_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if gridCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("GRID_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	gridCircuitHalfOpenReq, err := getEnvAsInt("GRID_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse GRID_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if gridCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("GRID_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	seriesCacheTTL, err := time.ParseDuration(getEnv("SERIES_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SERIES_CACHE_TTL: %w", err)
	}
	if seriesCacheTTL < 0 {
		return Config{}, fmt.Errorf("SERIES_CACHE_TTL must be >= 0")
	}

	economyEco, err := getEnvAsInt("ECONOMY_ECO_THRESHOLD", 5000)
	if err != nil {
		return Config{}, fmt.Errorf("parse ECONOMY_ECO_THRESHOLD: %w", err)
	}
	economyForce, err := getEnvAsInt("ECONOMY_FORCE_THRESHOLD", 10000)
	if err != nil {
		return Config{}, fmt.Errorf("parse ECONOMY_FORCE_THRESHOLD: %w", err)
	}
	economyFull, err := getEnvAsInt("ECONOMY_FULL_THRESHOLD", 20000)
	if err != nil {
		return Config{}, fmt.Errorf("parse ECONOMY_FULL_THRESHOLD: %w", err)
	}
	if economyEco <= 0 || economyForce <= 0 || economyFull <= 0 {
		return Config{}, fmt.Errorf("economy thresholds must be > 0")
	}

	ingestWorkers, err := getEnvAsInt("INGEST_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse INGEST_WORKERS: %w", err)
	}
	if ingestWorkers < 1 {
		return Config{}, fmt.Errorf("INGEST_WORKERS must be >= 1")
	}
	ingestCallTimeout, err := time.ParseDuration(getEnv("INGEST_CALL_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse INGEST_CALL_TIMEOUT: %w", err)
	}
	if ingestCallTimeout <= 0 {
		return Config{}, fmt.Errorf("INGEST_CALL_TIMEOUT must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("APP_SERVICE_NAME", "scout-api"),
		ServiceVersion:          getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		DBPath:                  getEnv("DB_PATH", "./data/scout.db"),
		GridAPIKey:              strings.TrimSpace(getEnv("GRID_API_KEY", "")),
		GridBaseURL:             strings.TrimSpace(getEnv("GRID_BASE_URL", "https://api.grid.gg/query")),
		GridTimeout:             gridTimeout,
		GridMaxRetries:          gridMaxRetries,
		GridRetryBaseDelay:      gridRetryBaseDelay,
		GridCircuitEnabled:      gridCircuitEnabled,
		GridCircuitFailureCount: gridCircuitFailureCount,
		GridCircuitOpenTimeout:  gridCircuitOpenTimeout,
		GridCircuitHalfOpenReq:  gridCircuitHalfOpenReq,
		SeriesCacheTTL:          seriesCacheTTL,
		EconomyEcoThreshold:     economyEco,
		EconomyForceThreshold:   economyForce,
		EconomyFullThreshold:    economyFull,
		IngestWorkers:           ingestWorkers,
		IngestCallTimeout:       ingestCallTimeout,
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              uptraceDSN,
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  pyroscopeServerAddress,
		PyroscopeAuthToken:      strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:     pyroscopeUploadRate,
		LogLevel:                logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, fmt.Errorf("DB_PATH cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}
