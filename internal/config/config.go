package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageBackendGitLab   = "gitlab"
	StorageBackendSupabase = "supabase"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	GitLab   GitLabConfig   `yaml:"gitlab"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Assets   AssetsConfig   `yaml:"assets"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	Environment string   `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

type StorageConfig struct {
	// Backend selects the asset repository: "gitlab" or "supabase".
	Backend string `yaml:"backend"`
}

// GitLabConfig points at the repository that holds survey photographs.
type GitLabConfig struct {
	APIURL        string        `yaml:"api_url"`    // e.g. https://gitlab.com/api/v4
	ProjectID     string        `yaml:"project_id"` // numeric id or url-encoded namespace/name
	Token         string        `yaml:"token"`
	Branch        string        `yaml:"branch"`
	RepoRoot      string        `yaml:"repo_root"`
	PublicURL     string        `yaml:"public_url"` // project web URL used to derive raw links
	AuthorName    string        `yaml:"author_name"`
	AuthorEmail   string        `yaml:"author_email"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryCount    int           `yaml:"retry_count"`
	RetryWaitTime time.Duration `yaml:"retry_wait_time"`
	RetryMaxWait  time.Duration `yaml:"retry_max_wait"`
}

type SupabaseConfig struct {
	URL           string        `yaml:"url"`
	Key           string        `yaml:"key"`
	StorageBucket string        `yaml:"storage_bucket"`
	RepoRoot      string        `yaml:"repo_root"`
	Timeout       time.Duration `yaml:"timeout"`
}

type AssetsConfig struct {
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
	AllowedMIMETypes []string `yaml:"allowed_mime_types"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StatsTTL time.Duration `yaml:"stats_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides a setting.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			MaxConns: 10,
			MaxIdle:  5,
		},
		Storage: StorageConfig{Backend: StorageBackendGitLab},
		GitLab: GitLabConfig{
			APIURL:        "https://gitlab.com/api/v4",
			Branch:        "main",
			RepoRoot:      "surveys",
			AuthorName:    "Property Survey Service",
			AuthorEmail:   "survey-bot@localhost",
			Timeout:       30 * time.Second,
			RetryCount:    2,
			RetryWaitTime: 500 * time.Millisecond,
			RetryMaxWait:  3 * time.Second,
		},
		Supabase: SupabaseConfig{
			StorageBucket: "property-images",
			RepoRoot:      "surveys",
			Timeout:       30 * time.Second,
		},
		Assets: AssetsConfig{
			MaxFileSizeBytes: 10 << 20,
			AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/webp", "image/heic"},
		},
		Redis: RedisConfig{
			StatsTTL: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads defaults, then the YAML file named by CONFIG_FILE (if any),
// then environment variables, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("DATABASE_MAX_CONNS", c.Database.MaxConns)
	c.Database.MaxIdle = getEnvInt("DATABASE_MAX_IDLE", c.Database.MaxIdle)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)

	c.GitLab.APIURL = getEnv("GITLAB_API_URL", c.GitLab.APIURL)
	c.GitLab.ProjectID = getEnv("GITLAB_PROJECT_ID", c.GitLab.ProjectID)
	c.GitLab.Token = getEnv("GITLAB_TOKEN", c.GitLab.Token)
	c.GitLab.Branch = getEnv("GITLAB_BRANCH", c.GitLab.Branch)
	c.GitLab.RepoRoot = getEnv("GITLAB_REPO_ROOT", c.GitLab.RepoRoot)
	c.GitLab.PublicURL = getEnv("GITLAB_PUBLIC_URL", c.GitLab.PublicURL)
	c.GitLab.AuthorName = getEnv("GITLAB_AUTHOR_NAME", c.GitLab.AuthorName)
	c.GitLab.AuthorEmail = getEnv("GITLAB_AUTHOR_EMAIL", c.GitLab.AuthorEmail)
	c.GitLab.Timeout = getEnvDuration("GITLAB_TIMEOUT", c.GitLab.Timeout)
	c.GitLab.RetryCount = getEnvInt("GITLAB_RETRY_COUNT", c.GitLab.RetryCount)

	c.Supabase.URL = getEnv("SUPABASE_URL", c.Supabase.URL)
	c.Supabase.Key = getEnv("SUPABASE_KEY", c.Supabase.Key)
	c.Supabase.StorageBucket = getEnv("SUPABASE_STORAGE_BUCKET", c.Supabase.StorageBucket)
	c.Supabase.Timeout = getEnvDuration("SUPABASE_TIMEOUT", c.Supabase.Timeout)

	c.Assets.MaxFileSizeBytes = int64(getEnvInt("ASSET_MAX_FILE_SIZE_BYTES", int(c.Assets.MaxFileSizeBytes)))
	c.Assets.AllowedMIMETypes = getEnvList("ASSET_ALLOWED_MIME_TYPES", c.Assets.AllowedMIMETypes)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.StatsTTL = getEnvDuration("REDIS_STATS_TTL", c.Redis.StatsTTL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Storage.Backend {
	case StorageBackendGitLab:
		if c.GitLab.ProjectID == "" {
			return fmt.Errorf("GITLAB_PROJECT_ID is required")
		}
		if c.GitLab.Token == "" {
			return fmt.Errorf("GITLAB_TOKEN is required")
		}
		if c.GitLab.PublicURL == "" {
			return fmt.Errorf("GITLAB_PUBLIC_URL is required")
		}
	case StorageBackendSupabase:
		if c.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.Supabase.Key == "" {
			return fmt.Errorf("SUPABASE_KEY is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Assets.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("ASSET_MAX_FILE_SIZE_BYTES must be positive")
	}
	if len(c.Assets.AllowedMIMETypes) == 0 {
		return fmt.Errorf("at least one allowed MIME type is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
