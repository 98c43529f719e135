package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Provider ProviderConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mock     MockConfig
}

type ServerConfig struct {
	Address         string
	ServiceName     string
	CORSAllowOrigin string
	LogLevel        slog.Level
	LogFormat       string
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects the persistence backend. MongoURI may be empty; the
// store then reports a configuration error on first use.
type StoreConfig struct {
	Driver      string
	MongoURI    string
	MongoDB     string
	PostgresURL string
}

// ProviderConfig describes the SMS relay. An empty URL is reported by the
// provider client when a send is attempted.
type ProviderConfig struct {
	URL             string
	APIKey          string
	DefaultSenderID string
	Timeout         time.Duration
	PhoneRegion     string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers string
	Topic   string
}

type MockConfig struct {
	Address string
}

func LoadAll() (*Config, error) {
	var errs []error

	serverCfg, err := loadServerConfig()
	errs = append(errs, err)
	storeCfg, err := loadStoreConfig()
	errs = append(errs, err)
	providerCfg, err := loadProviderConfig()
	errs = append(errs, err)
	redisCfg, err := loadRedisConfig()
	errs = append(errs, err)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:   serverCfg,
		Store:    storeCfg,
		Provider: providerCfg,
		Redis:    redisCfg,
		Kafka:    loadKafkaConfig(),
		Mock: MockConfig{
			Address: getEnv("MOCK_PROVIDER_ADDRESS", ":8081"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Address:         getEnv("SERVER_ADDRESS", ":8080"),
		ServiceName:     getEnv("SERVICE_NAME", "sms-faas"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func loadStoreConfig() (StoreConfig, error) {
	cfg := StoreConfig{
		Driver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  getEnv("MONGODB_DB", "smsdb"),
	}
	if cfg.Driver != DriverPostgres {
		cfg.PostgresURL = os.Getenv("POSTGRES_URL")
		return cfg, nil
	}

	url, err := requireEnv("POSTGRES_URL")
	cfg.PostgresURL = url
	return cfg, err
}

func loadProviderConfig() (ProviderConfig, error) {
	timeout, err := getEnvInt("SMS_API_TIMEOUT_SECONDS", 0)
	return ProviderConfig{
		URL:             os.Getenv("SMS_API_URL"),
		APIKey:          os.Getenv("SMS_API_KEY"),
		DefaultSenderID: os.Getenv("SMS_DEFAULT_SENDER_ID"),
		Timeout:         time.Duration(timeout) * time.Second,
		PhoneRegion:     strings.ToUpper(os.Getenv("SMS_PHONE_REGION")),
	}, err
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, dbErr := getEnvInt("REDIS_DB", 0)
	ttl, ttlErr := getEnvInt("REDIS_TTL_SECONDS", 86400)

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, joinErrors([]error{dbErr, ttlErr})
}

func loadKafkaConfig() KafkaConfig {
	brokers := os.Getenv("KAFKA_BROKERS")
	return KafkaConfig{
		Enabled: brokers != "",
		Brokers: brokers,
		Topic:   getEnv("KAFKA_TOPIC", "sms.logs"),
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, memory, got %q", cfg.Store.Driver))
	}
	switch cfg.Server.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.Server.LogFormat))
	}
	if cfg.Provider.Timeout < 0 {
		errs = append(errs, errors.New("SMS_API_TIMEOUT_SECONDS must be >= 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.DB < 0 {
		errs = append(errs, errors.New("REDIS_DB must be >= 0"))
	}

	return joinErrors(errs)
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

// joinErrors returns nil when every entry is nil.
func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
