package configs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// =======================
// CONFIG
// =======================

type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	// DB_DSN wins over the individual DB_* fields when set.
	DBDSN      string `env:"DB_DSN"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"admissions"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`
	DBLogSQL   bool   `env:"DB_LOG_SQL" envDefault:"false"`

	JWTSecret string `env:"JWT_SECRET"`

	RedisURL string `env:"REDIS_URL"`

	ResendAPIKey       string        `env:"RESEND_API_KEY"`
	ResendFrom         string        `env:"RESEND_FROM" envDefault:"onboarding@resend.dev"`
	EmailRatePerSecond float64       `env:"EMAIL_RATE_PER_SECOND" envDefault:"2"`
	NotifyWorkers      int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	NotifyQueueSize    int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	NotifyTimeout      time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	// Empty disables the job.
	ReconcileCron string `env:"RECONCILE_CRON"`
	SeedCourses   bool   `env:"SEED_COURSES" envDefault:"false"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// =======================
// ENV LOADER
// =======================

// LoadEnv reads .env outside Railway and parses the environment.
func LoadEnv() (*Config, error) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[CONFIG] no .env file, using system environment")
		} else {
			log.Println("[CONFIG] .env loaded")
		}
	} else {
		log.Println("[CONFIG] running on Railway, using system environment")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		log.Println("[CONFIG] JWT_SECRET is not set; reviewer and student routes will reject every token")
	}
	return cfg, nil
}

// Parse reads Config from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode) + "&application_name=admissions",
	}
	return u.String()
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// GORM LOGGER CUSTOM
// =======================

type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

// NewGormLogger logs errors and slow queries; every query when logAll.
func NewGormLogger(logAll bool) gormLogger.Interface {
	level := gormLogger.Warn
	if logAll {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !isRecordNotFound(err):
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gormLogger.ErrRecordNotFound)
}
