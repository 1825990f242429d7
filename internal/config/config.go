package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "QUIZ"

type Config struct {
	Addr string

	StoreDriver string
	StoreDSN    string

	// RedisAddr moves the score collection to Redis when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins []string

	Countdown    int
	TickInterval time.Duration

	AssistantURL   string
	AssistantKey   string
	AssistantModel string

	// AdminEmail and AdminPassword seed the first admin account.
	AdminEmail    string
	AdminPassword string
}

// Load reads settings from QUIZ_* environment variables, after loading
// envFile into the environment when it exists.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "load %s", envFile)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", envFile)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("store_dsn", "quiz.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", 8*time.Hour)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("countdown", 30)
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("assistant_url", "")
	v.SetDefault("assistant_key", "")
	v.SetDefault("assistant_model", "")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Addr:           v.GetString("addr"),
		StoreDriver:    strings.ToLower(v.GetString("store_driver")),
		StoreDSN:       v.GetString("store_dsn"),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		JWTSecret:      v.GetString("jwt_secret"),
		JWTTTL:         v.GetDuration("jwt_ttl"),
		CORSOrigins:    splitList(v.GetString("cors_origins")),
		Countdown:      v.GetInt("countdown"),
		TickInterval:   v.GetDuration("tick_interval"),
		AssistantURL:   v.GetString("assistant_url"),
		AssistantKey:   v.GetString("assistant_key"),
		AssistantModel: v.GetString("assistant_model"),
		AdminEmail:     v.GetString("admin_email"),
		AdminPassword:  v.GetString("admin_password"),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.Errorf("%s_JWT_SECRET is required", envPrefix)
	}
	if cfg.Countdown <= 0 {
		return nil, errors.Errorf("%s_COUNTDOWN must be positive, got %d", envPrefix, cfg.Countdown)
	}
	if cfg.TickInterval <= 0 {
		return nil, errors.Errorf("%s_TICK_INTERVAL must be positive, got %s", envPrefix, cfg.TickInterval)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.Errorf("%s_ADMIN_EMAIL and %s_ADMIN_PASSWORD must be set together", envPrefix, envPrefix)
	}
	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
