package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SessionBackendFile     = "file"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"

	NotificationSourceWebSocket = "websocket"
	NotificationSourceKafka     = "kafka"
)

type Config struct {
	// Backend
	APIBaseURL       string        `yaml:"api_base_url"`
	NotificationsURL string        `yaml:"notifications_url"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`

	// Session
	SessionBackend string `yaml:"session_backend"`
	SessionFile    string `yaml:"session_file"`
	SessionProfile string `yaml:"session_profile"`

	// Redis
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Database
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	// Notifications
	NotificationSource      string        `yaml:"notification_source"`
	KafkaBrokers            []string      `yaml:"kafka_brokers"`
	KafkaTopic              string        `yaml:"kafka_topic"`
	KafkaGroupID            string        `yaml:"kafka_group_id"`
	NotifyReconnectAttempts int           `yaml:"notify_reconnect_attempts"`
	NotifyReconnectDelay    time.Duration `yaml:"notify_reconnect_delay"`

	// Files
	DownloadDir string `yaml:"download_dir"`
}

func Load() *Config {
	return &Config{
		APIBaseURL:       getEnv("CONSOLE_API_BASE_URL", "http://127.0.0.1:8000"),
		NotificationsURL: getEnv("CONSOLE_NOTIFICATIONS_URL", "ws://127.0.0.1:8000/ws/notifications"),
		RequestTimeout:   getDuration("CONSOLE_REQUEST_TIMEOUT", 0),

		SessionBackend: getEnv("CONSOLE_SESSION_BACKEND", SessionBackendFile),
		SessionFile:    getEnv("CONSOLE_SESSION_FILE", defaultSessionFile()),
		SessionProfile: getEnv("CONSOLE_SESSION_PROFILE", "default"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "nexusforge"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "nexusforge"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		NotificationSource:      getEnv("CONSOLE_NOTIFICATION_SOURCE", NotificationSourceWebSocket),
		KafkaBrokers:            getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:              getEnv("CONSOLE_KAFKA_TOPIC", "nexusforge.notifications"),
		KafkaGroupID:            getEnv("KAFKA_GROUP_ID", ""),
		NotifyReconnectAttempts: getIntEnv("CONSOLE_NOTIFY_RECONNECT_ATTEMPTS", 0),
		NotifyReconnectDelay:    getDuration("CONSOLE_NOTIFY_RECONNECT_DELAY", 500*time.Millisecond),

		DownloadDir: getEnv("CONSOLE_DOWNLOAD_DIR", "."),
	}
}

// LoadFile overlays the YAML document at path on top of the environment.
// An empty path returns the environment configuration unchanged.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("api_base_url must not be empty")
	}
	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendRedis, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	switch c.NotificationSource {
	case NotificationSourceWebSocket, NotificationSourceKafka:
	default:
		return fmt.Errorf("unknown notification source %q", c.NotificationSource)
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDB,
		c.PostgresPort,
		c.PostgresSSLMode,
	)
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".nexusforge", "session.yaml")
	}
	return filepath.Join(home, ".nexusforge", "session.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
