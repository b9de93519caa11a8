package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Env         string   `yaml:"env"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // в минутах
	} `yaml:"jwt"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	SOS struct {
		NotifyRadiusKm float64 `yaml:"notify_radius_km"`
		DefaultReward  int64   `yaml:"default_reward"`
	} `yaml:"sos"`

	Discovery struct {
		MaxRadiusKm float64 `yaml:"max_radius_km"`
		ResultLimit int     `yaml:"result_limit"`
	} `yaml:"discovery"`

	Leaderboard struct {
		DefaultLimit int `yaml:"default_limit"`
	} `yaml:"leaderboard"`

	WebSocket struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"websocket"`

	FirstAdmin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"first_admin"`
}

var AppConfig *Config

// Load - yaml файл (если есть) -> .env -> переменные окружения -> значения по умолчанию
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		if f, err := os.Open(configPath); err == nil {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
		}
	}

	// .env не обязателен
	_ = godotenv.Load()

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database url is not configured (DATABASE_URL)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured (JWT_SECRET)")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.TTL, "JWT_TTL_MINUTES")
	setBool(&cfg.Database.AutoMigrate, "DB_AUTO_MIGRATE")
	setFloat(&cfg.RateLimit.RequestsPerSecond, "RATE_LIMIT_RPS")
	setInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST")
	setFloat(&cfg.SOS.NotifyRadiusKm, "SOS_NOTIFY_RADIUS_KM")
	setBool(&cfg.WebSocket.Enabled, "WS_ENABLED")
	setString(&cfg.FirstAdmin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdmin.Password, "FIRST_ADMIN_PASSWORD")
	setString(&cfg.FirstAdmin.Name, "FIRST_ADMIN_NAME")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60 * 24
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.SOS.NotifyRadiusKm == 0 {
		cfg.SOS.NotifyRadiusKm = 10
	}
	if cfg.SOS.DefaultReward == 0 {
		cfg.SOS.DefaultReward = 10000
	}
	if cfg.Discovery.MaxRadiusKm == 0 {
		cfg.Discovery.MaxRadiusKm = 50
	}
	if cfg.Discovery.ResultLimit == 0 {
		cfg.Discovery.ResultLimit = 50
	}
	if cfg.Leaderboard.DefaultLimit == 0 {
		cfg.Leaderboard.DefaultLimit = 20
	}
	if cfg.FirstAdmin.Name == "" {
		cfg.FirstAdmin.Name = "Administrator"
	}
}

// JWTTTL - время жизни токена
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

// Addr - адрес для http.Server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func LoadConfig() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
