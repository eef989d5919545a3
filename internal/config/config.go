package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gridpulse/fantasy-api/internal/platform/logging"
)

type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	// DBURL is optional. When empty the service runs with in-memory
	// persistence only; cache entries and credentials are lost on restart.
	DBURL string

	CORSAllowedOrigins []string

	Season          int
	CurrentWeek     int
	SeasonStartDate time.Time
	MaxWorkers      int

	LeagueHubBaseURL               string
	LeagueHubClientID              string
	LeagueHubClientSecret          string
	LeagueHubAuthURL               string
	LeagueHubTokenURL              string
	LeagueHubTimeout               time.Duration
	LeagueHubMaxRetries            int
	LeagueHubMinRequestInterval    time.Duration
	LeagueHubCircuitEnabled        bool
	LeagueHubCircuitFailureCount   int
	LeagueHubCircuitOpenTimeout    time.Duration
	LeagueHubCircuitHalfOpenMaxReq int

	StatsFeedBaseURL               string
	StatsFeedTimeout               time.Duration
	StatsFeedRetryBaseDelay        time.Duration
	StatsFeedCircuitEnabled        bool
	StatsFeedCircuitFailureCount   int
	StatsFeedCircuitOpenTimeout    time.Duration
	StatsFeedCircuitHalfOpenMaxReq int

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if appEnv == EnvProd && logLevel == logging.LevelDebug {
		logLevel = logging.LevelInfo
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	season, err := getEnvAsInt("SEASON", time.Now().Year())
	if err != nil {
		return Config{}, fmt.Errorf("parse SEASON: %w", err)
	}
	currentWeek, err := getEnvAsInt("CURRENT_WEEK", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse CURRENT_WEEK: %w", err)
	}
	if currentWeek < 0 {
		return Config{}, fmt.Errorf("CURRENT_WEEK must be >= 0")
	}
	seasonStartDate, err := time.Parse("2006-01-02", getEnv("SEASON_START_DATE", fmt.Sprintf("%d-09-04", season)))
	if err != nil {
		return Config{}, fmt.Errorf("parse SEASON_START_DATE: %w", err)
	}
	maxWorkers, err := getEnvAsInt("MAX_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_WORKERS: %w", err)
	}
	if maxWorkers < 1 {
		return Config{}, fmt.Errorf("MAX_WORKERS must be >= 1")
	}

	leagueHubTimeout, err := time.ParseDuration(getEnv("LEAGUEHUB_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_TIMEOUT: %w", err)
	}
	leagueHubMaxRetries, err := getEnvAsInt("LEAGUEHUB_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_MAX_RETRIES: %w", err)
	}
	leagueHubMinRequestInterval, err := time.ParseDuration(getEnv("LEAGUEHUB_MIN_REQUEST_INTERVAL", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_MIN_REQUEST_INTERVAL: %w", err)
	}
	leagueHubCircuitEnabled, err := strconv.ParseBool(getEnv("LEAGUEHUB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_ENABLED: %w", err)
	}
	leagueHubCircuitFailureCount, err := getEnvAsInt("LEAGUEHUB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	leagueHubCircuitOpenTimeout, err := time.ParseDuration(getEnv("LEAGUEHUB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	leagueHubCircuitHalfOpenMaxReq, err := getEnvAsInt("LEAGUEHUB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	statsFeedTimeout, err := time.ParseDuration(getEnv("STATSFEED_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_TIMEOUT: %w", err)
	}
	statsFeedRetryBaseDelay, err := time.ParseDuration(getEnv("STATSFEED_RETRY_BASE_DELAY", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_RETRY_BASE_DELAY: %w", err)
	}
	statsFeedCircuitEnabled, err := strconv.ParseBool(getEnv("STATSFEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_ENABLED: %w", err)
	}
	statsFeedCircuitFailureCount, err := getEnvAsInt("STATSFEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	statsFeedCircuitOpenTimeout, err := time.ParseDuration(getEnv("STATSFEED_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	statsFeedCircuitHalfOpenMaxReq, err := getEnvAsInt("STATSFEED_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
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

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "fantasy-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       logLevel,

		DBURL: strings.TrimSpace(getEnv("DB_URL", "")),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		Season:          season,
		CurrentWeek:     currentWeek,
		SeasonStartDate: seasonStartDate,
		MaxWorkers:      maxWorkers,

		LeagueHubBaseURL:               strings.TrimSpace(getEnv("LEAGUEHUB_BASE_URL", "")),
		LeagueHubClientID:              strings.TrimSpace(getEnv("LEAGUEHUB_CLIENT_ID", "")),
		LeagueHubClientSecret:          strings.TrimSpace(getEnv("LEAGUEHUB_CLIENT_SECRET", "")),
		LeagueHubAuthURL:               strings.TrimSpace(getEnv("LEAGUEHUB_AUTH_URL", "https://auth.leaguehub.example.com/oauth2/authorize")),
		LeagueHubTokenURL:              strings.TrimSpace(getEnv("LEAGUEHUB_TOKEN_URL", "https://auth.leaguehub.example.com/oauth2/token")),
		LeagueHubTimeout:               leagueHubTimeout,
		LeagueHubMaxRetries:            leagueHubMaxRetries,
		LeagueHubMinRequestInterval:    leagueHubMinRequestInterval,
		LeagueHubCircuitEnabled:        leagueHubCircuitEnabled,
		LeagueHubCircuitFailureCount:   leagueHubCircuitFailureCount,
		LeagueHubCircuitOpenTimeout:    leagueHubCircuitOpenTimeout,
		LeagueHubCircuitHalfOpenMaxReq: leagueHubCircuitHalfOpenMaxReq,

		StatsFeedBaseURL:               strings.TrimSpace(getEnv("STATSFEED_BASE_URL", "")),
		StatsFeedTimeout:               statsFeedTimeout,
		StatsFeedRetryBaseDelay:        statsFeedRetryBaseDelay,
		StatsFeedCircuitEnabled:        statsFeedCircuitEnabled,
		StatsFeedCircuitFailureCount:   statsFeedCircuitFailureCount,
		StatsFeedCircuitOpenTimeout:    statsFeedCircuitOpenTimeout,
		StatsFeedCircuitHalfOpenMaxReq: statsFeedCircuitHalfOpenMaxReq,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(v))
	switch normalized {
	case EnvDev, EnvStage, EnvProd:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
