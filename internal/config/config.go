package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	Session struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // hours
	} `yaml:"session"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
		TemplatesDir string `yaml:"templates_dir"`
	} `yaml:"email"`

	Storage struct {
		Type       string `yaml:"type"`       // local, s3
		BasePath   string `yaml:"base_path"`  // for local storage
		BaseURL    string `yaml:"base_url"`   // public URL base
		Bucket     string `yaml:"bucket"`     // for S3-compatible buckets
		Region     string `yaml:"region"`     // for S3
		AccessKey  string `yaml:"access_key"` // for S3
		SecretKey  string `yaml:"secret_key"` // for S3
		Endpoint   string `yaml:"endpoint"`   // for R2 or custom S3
		PublicRead bool   `yaml:"public_read"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"` // max file size in bytes
		AllowedTypes []string `yaml:"allowed_types"`
	} `yaml:"upload"`

	App struct {
		BaseURL            string `yaml:"base_url"` // used in email links
		FirstAdminEmail    string `yaml:"first_admin_email"`
		FirstAdminPassword string `yaml:"first_admin_password"`
	} `yaml:"app"`
}

var AppConfig *Config

// LoadConfig loads config.yaml and applies environment overrides. When
// DATABASE_URL is set the file is skipped entirely (test / container mode).
func LoadConfig() {
	var cfg Config

	// .env is optional; real deployments use actual environment variables.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		cfg.applyEnvOverrides()
		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	cfg.Session.TTL = 168 // 7 days

	cfg.Email.SMTPHost = envOr("EMAIL_HOST", "smtp.test.com")
	cfg.Email.SMTPPort = envIntOr("EMAIL_PORT", 587)
	cfg.Email.SMTPUsername = os.Getenv("EMAIL_USER")
	cfg.Email.SMTPPassword = os.Getenv("EMAIL_APP_PASSWORD")
	cfg.Email.FromEmail = envOr("EMAIL_FROM", "noreply@excos.edu")
	cfg.Email.TemplatesDir = envOr("TEMPLATES_DIR", "templates")

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.App.BaseURL = envOr("APP_URL", "http://localhost:3000")

	cfg.applyDefaults()
	AppConfig = &cfg
}

// applyEnvOverrides lets individual environment variables win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" {
		c.Email.SMTPHost = v
	}
	if v := os.Getenv("EMAIL_USER"); v != "" {
		c.Email.SMTPUsername = v
	}
	if v := os.Getenv("EMAIL_APP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv("APP_URL"); v != "" {
		c.App.BaseURL = v
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		c.App.FirstAdminEmail = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		c.App.FirstAdminPassword = v
	}
}

func (c *Config) applyDefaults() {
	if c.Session.TTL == 0 {
		c.Session.TTL = 168
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{
			"image/jpeg", "image/png", "image/webp", "application/pdf",
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// GetConfig returns the loaded config, loading it on first use.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
