package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is shared by every service binary; each reads the sections it needs.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Events   EventsConfig
	Services ServicesConfig
	Gateway  GatewayConfig
	Jobs     JobsConfig
	Cache    CacheConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EventsConfig names the relay streams and the consumer group of the binary.
type EventsConfig struct {
	UserStream       string
	EnrollmentStream string
	AttendanceStream string
	ConsumerGroup    string
	ConsumerName     string
	BlockTimeout     time.Duration
}

// ServicesConfig holds addresses of sibling services.
type ServicesConfig struct {
	CourseBaseURL  string
	CourseTimeout  time.Duration
	AuthBaseURL    string
	StudentBaseURL string
	AnalyticsBase  string
}

// GatewayConfig tunes edge behaviour.
type GatewayConfig struct {
	ProxyTimeout time.Duration
}

// JobsConfig configures the in-memory background queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// CacheConfig governs read-side caching of analytics queries.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportsConfig limits export payload size.
type ExportsConfig struct {
	MaxRows int
}

// Load reads .env (when present) plus environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Events = EventsConfig{
		UserStream:       v.GetString("EVENTS_USER_STREAM"),
		EnrollmentStream: v.GetString("EVENTS_ENROLLMENT_STREAM"),
		AttendanceStream: v.GetString("EVENTS_ATTENDANCE_STREAM"),
		ConsumerGroup:    v.GetString("EVENTS_CONSUMER_GROUP"),
		ConsumerName:     v.GetString("EVENTS_CONSUMER_NAME"),
		BlockTimeout:     parseDuration(v.GetString("EVENTS_BLOCK_TIMEOUT"), 5*time.Second),
	}

	cfg.Services = ServicesConfig{
		CourseBaseURL:  v.GetString("COURSE_SERVICE_URL"),
		CourseTimeout:  parseDuration(v.GetString("COURSE_SERVICE_TIMEOUT"), 5*time.Second),
		AuthBaseURL:    v.GetString("AUTH_SERVICE_URL"),
		StudentBaseURL: v.GetString("STUDENT_SERVICE_URL"),
		AnalyticsBase:  v.GetString("ANALYTICS_SERVICE_URL"),
	}

	cfg.Gateway = GatewayConfig{
		ProxyTimeout: parseDuration(v.GetString("GATEWAY_PROXY_TIMEOUT"), 30*time.Second),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{MaxRows: v.GetInt("EXPORTS_MAX_ROWS")}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("invalid ENV %q", c.Env)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_platform")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_ISSUER", "school-platform")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EVENTS_USER_STREAM", "user-provisioned")
	v.SetDefault("EVENTS_ENROLLMENT_STREAM", "enrollment-events")
	v.SetDefault("EVENTS_ATTENDANCE_STREAM", "attendance-events")
	v.SetDefault("EVENTS_CONSUMER_GROUP", "default")
	v.SetDefault("EVENTS_CONSUMER_NAME", "worker-1")

	v.SetDefault("COURSE_SERVICE_URL", "http://localhost:8083")
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("STUDENT_SERVICE_URL", "http://localhost:8084")
	v.SetDefault("ANALYTICS_SERVICE_URL", "http://localhost:8085")

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 32)
	v.SetDefault("JOBS_MAX_RETRIES", 3)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("EXPORTS_MAX_ROWS", 5000)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
