package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration loaded from an optional YAML file and the environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	AWS       AWSConfig       `yaml:"aws"`
	Directory DirectoryConfig `yaml:"directory"`
	Login     LoginConfig     `yaml:"login"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	ReadTimeout    int      `yaml:"read_timeout_sec"`
	WriteTimeout   int      `yaml:"write_timeout_sec"`
	TrustedProxies []string `yaml:"trusted_proxies"` // nil trusts none
	FeedOrigins    []string `yaml:"feed_origins"`    // origins allowed to read /events/feed
}

// BackendConfig points at the HR API the portal renders.
type BackendConfig struct {
	BaseURL    string `yaml:"base_url"` // e.g. http://localhost:3030/api/v1
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RedisConfig holds Redis connection settings. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionConfig holds the session cookie and workspace settings.
type SessionConfig struct {
	Secret         string `yaml:"secret"`
	ExpireHours    int    `yaml:"expire_hours"`
	CookieName     string `yaml:"cookie_name"`
	SecureCookie   bool   `yaml:"secure_cookie"`
	IdleTTLMinutes int    `yaml:"idle_ttl_minutes"`
}

// AWSConfig holds credentials and the bucket employee images live in.
type AWSConfig struct {
	Region               string `yaml:"region"`
	AccessKeyID          string `yaml:"access_key_id"`
	SecretAccessKey      string `yaml:"secret_access_key"`
	AvatarsBucket        string `yaml:"avatars_bucket"`
	PresignExpireMinutes int    `yaml:"presign_expire_minutes"`
}

// DirectoryConfig holds employee directory settings.
type DirectoryConfig struct {
	PageSize int `yaml:"page_size"`
}

// LoginConfig throttles sign-in attempts per client IP.
type LoginConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Backend: BackendConfig{
			BaseURL:    "http://localhost:3030/api/v1",
			TimeoutSec: 15,
		},
		Session: SessionConfig{
			Secret:         "change-me-in-production",
			ExpireHours:    24,
			CookieName:     "portal_session",
			IdleTTLMinutes: 30,
		},
		AWS: AWSConfig{
			PresignExpireMinutes: 15,
		},
		Directory: DirectoryConfig{
			PageSize: 10,
		},
		Login: LoginConfig{
			RatePerSecond: 1,
			Burst:         5,
		},
	}
}

// Load reads configuration: defaults, then the YAML file named by PORTAL_CONFIG_FILE
// (if any), then environment variables, with optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := Default()
	if path := os.Getenv("PORTAL_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("READ_TIMEOUT_SEC", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("WRITE_TIMEOUT_SEC", cfg.Server.WriteTimeout)
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = splitTrim(v, ",")
	}
	if v := os.Getenv("FEED_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.FeedOrigins = splitTrim(v, ",")
	}

	cfg.Backend.BaseURL = strings.TrimRight(getEnv("BACKEND_BASE_URL", cfg.Backend.BaseURL), "/")
	cfg.Backend.TimeoutSec = getEnvInt("BACKEND_TIMEOUT_SEC", cfg.Backend.TimeoutSec)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.ExpireHours = getEnvInt("SESSION_EXPIRE_HOURS", cfg.Session.ExpireHours)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.SecureCookie = getEnvBool("SESSION_SECURE_COOKIE", cfg.Session.SecureCookie)
	cfg.Session.IdleTTLMinutes = getEnvInt("WORKSPACE_IDLE_TTL_MINUTES", cfg.Session.IdleTTLMinutes)

	cfg.AWS.Region = getEnv("AWS_REGION", cfg.AWS.Region)
	cfg.AWS.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", cfg.AWS.AccessKeyID)
	cfg.AWS.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", cfg.AWS.SecretAccessKey)
	cfg.AWS.AvatarsBucket = getEnv("AWS_S3_AVATARS_BUCKET", cfg.AWS.AvatarsBucket)
	cfg.AWS.PresignExpireMinutes = getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", cfg.AWS.PresignExpireMinutes)

	cfg.Directory.PageSize = getEnvInt("DIRECTORY_PAGE_SIZE", cfg.Directory.PageSize)

	cfg.Login.RatePerSecond = getEnvFloat("LOGIN_RATE_PER_SEC", cfg.Login.RatePerSecond)
	cfg.Login.Burst = getEnvInt("LOGIN_BURST", cfg.Login.Burst)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base url is required")
	}
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if c.Directory.PageSize <= 0 {
		c.Directory.PageSize = 10
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "portal_session"
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
