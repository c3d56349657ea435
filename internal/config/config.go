// internal/config/config.go
package config

import (
    "fmt"
    "os"
    "strconv"
    "time"
)

// Config is loaded once at startup and passed into the scheduler, campaign
// processor and lead generation engine explicitly. No component reads the
// environment on its own.
type Config struct {
    Environment string

    // Database
    DBUser     string
    DBPassword string
    DBHost     string
    DBPort     string
    DBName     string

    // Optional infrastructure. Empty RedisAddr falls back to Postgres
    // advisory locks; empty AMQPURL disables event publishing.
    RedisAddr string
    AMQPURL   string

    // Engine knobs
    SchedulerTickInterval  time.Duration
    LeadRetryIntervalHours int
    DailyRetryHour         int
    DailyRetryMinute       int
    LeadFetchPageSize      int
    MaxLeadPageAttempts    int
    ConditionLookback      int
    LeaseTTL               time.Duration

    // Lead source
    LeadSourceBaseURL string
    LeadSourceAPIKey  string

    HTTPAddr string
}

// Load reads configuration from the environment, applying defaults for
// everything except database credentials.
func Load() *Config {
    return &Config{
        Environment: getEnv("ENVIRONMENT", "development"),

        DBUser:     os.Getenv("DB_USER"),
        DBPassword: os.Getenv("DB_PASSWORD"),
        DBHost:     getEnv("DB_HOST", "localhost"),
        DBPort:     getEnv("DB_PORT", "5432"),
        DBName:     os.Getenv("DB_NAME"),

        RedisAddr: os.Getenv("REDIS_ADDR"),
        AMQPURL:   os.Getenv("AMQP_URL"),

        SchedulerTickInterval:  getDuration("SCHEDULER_TICK_INTERVAL", 60*time.Second),
        LeadRetryIntervalHours: getInt("LEAD_RETRY_INTERVAL_HOURS", 4),
        DailyRetryHour:         getInt("DAILY_RETRY_HOUR", 9),
        DailyRetryMinute:       getInt("DAILY_RETRY_MINUTE", 0),
        LeadFetchPageSize:      getInt("LEAD_FETCH_PAGE_SIZE", 100),
        MaxLeadPageAttempts:    getInt("MAX_LEAD_PAGE_ATTEMPTS", 10),
        ConditionLookback:      getInt("CONDITION_LOOKBACK", 10),
        LeaseTTL:               getDuration("CAMPAIGN_LEASE_TTL", 10*time.Minute),

        LeadSourceBaseURL: getEnv("LEAD_SOURCE_BASE_URL", "https://api.apollo.io/v1"),
        LeadSourceAPIKey:  os.Getenv("LEAD_SOURCE_API_KEY"),

        HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
    }
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
    return fmt.Sprintf(
        "postgres://%s:%s@%s:%s/%s?sslmode=disable",
        c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
    )
}

func getEnv(key, fallback string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return fallback
}

func getInt(key string, fallback int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return fallback
}
