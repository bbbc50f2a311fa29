package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Env struct {
	AppAddr     string
	GinMode     string
	StoreDriver string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	JWTSecret   string
	CORSOrigins []string
	TxTimeout   time.Duration
	LogLevel    string
	// DemoPassword seeds one account per role on the memory store.
	DemoPassword string
}

// LoadEnv reads an optional .env file, then the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env")
	}

	env := Env{
		AppAddr:      getenv("APP_ADDR", ":8080"),
		GinMode:      getenv("GIN_MODE", ""),
		StoreDriver:  strings.ToLower(getenv("STORE_DRIVER", StoreMySQL)),
		DBUser:       getenv("DB_USER", "root"),
		DBPassword:   getenv("DB_PASSWORD", ""),
		DBHost:       getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:       getenv("DB_NAME", "transpo"),
		JWTSecret:    getenv("JWT_SECRET", "super-secret-key-change-me"),
		TxTimeout:    10 * time.Second,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		DemoPassword: getenv("DEMO_PASSWORD", ""),
	}

	if raw := getenv("TX_TIMEOUT", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			env.TxTimeout = d
		} else {
			logrus.WithField("value", raw).Warn("invalid TX_TIMEOUT, using default")
		}
	}

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			env.CORSOrigins = append(env.CORSOrigins, o)
		}
	}
	if len(env.CORSOrigins) == 0 {
		env.CORSOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}

	return env
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
