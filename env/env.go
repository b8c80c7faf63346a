package env

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	APP_PORT     string
	DB_DRIVER    string
	DB_DSN       string
	LOG_LEVEL    string
	CORS_ORIGINS string
	BCRYPT_COST  int
	SESSION_TTL  time.Duration
)

func initEnv(dst *string, key, def string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	*dst = def
}

func initInt(dst *int, key string, def int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			return
		}
	}
	*dst = def
}

func initDuration(dst *time.Duration, key string, def time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
			return
		}
	}
	*dst = def
}

func init() {
	godotenv.Load()
	initEnv(&APP_PORT, "APP_PORT", "8080")
	initEnv(&DB_DRIVER, "DB_DRIVER", "sqlite")
	initEnv(&DB_DSN, "DB_DSN", "threads.db")
	initEnv(&LOG_LEVEL, "LOG_LEVEL", "info")
	initEnv(&CORS_ORIGINS, "CORS_ORIGINS", "*")
	initInt(&BCRYPT_COST, "BCRYPT_COST", 12)
	initDuration(&SESSION_TTL, "SESSION_TTL", 30*24*time.Hour)
}
