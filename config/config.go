package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort                 = "8080"
	DefaultMetricsPort          = "9090"
	DefaultLogLevel             = "info"
	DefaultAccessTokenExpiryMin = 60
	DefaultMaxFailedAttempts    = 5
	DefaultLockoutMinutes       = 15
	DefaultPasswordMinLength    = 6
	DefaultJWTIssuer            = "gesco-api"
	DefaultJWTAudience          = "gesco-clients"
)

type Config struct {
	Env         string
	Port        string
	MetricsPort string
	LogLevel    string
	DBURL       string

	JWTSecret            string
	JWTIssuer            string
	JWTAudience          string
	AccessTokenExpiryMin int

	MaxFailedAttempts int
	LockoutMinutes    int

	PasswordMinLength          int
	PasswordRequireDigit       bool
	PasswordRequireUppercase   bool
	PasswordRequireNonAlphanum bool
}

func (c *Config) AccessTokenExpiry() time.Duration {
	return time.Duration(c.AccessTokenExpiryMin) * time.Minute
}

func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

// Load reads config/.env.<env> when present and lets real environment
// variables override it. Missing DB_URL or JWT_SECRET is fatal: the service
// must not come up without a signing key.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	env := v.GetString("ENV")

	suffix := "dev"
	if env == "production" {
		suffix = "prod"
	}
	v.SetConfigFile(fmt.Sprintf("config/.env.%s", suffix))
	v.SetConfigType("env")
	// The env file is optional; the environment alone may carry everything.
	_ = v.ReadInConfig()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("METRICS_PORT", DefaultMetricsPort)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
	v.SetDefault("JWT_ISSUER", DefaultJWTIssuer)
	v.SetDefault("JWT_AUDIENCE", DefaultJWTAudience)
	v.SetDefault("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin)
	v.SetDefault("MAX_FAILED_ATTEMPTS", DefaultMaxFailedAttempts)
	v.SetDefault("LOCKOUT_MINUTES", DefaultLockoutMinutes)
	v.SetDefault("PASSWORD_MIN_LENGTH", DefaultPasswordMinLength)
	v.SetDefault("PASSWORD_REQUIRE_DIGIT", true)
	v.SetDefault("PASSWORD_REQUIRE_UPPERCASE", true)
	v.SetDefault("PASSWORD_REQUIRE_NONALNUM", false)

	for _, key := range []string{"DB_URL", "JWT_SECRET"} {
		if v.GetString(key) == "" {
			log.Fatalf("Missing required config: %s", key)
		}
	}

	return &Config{
		Env:         env,
		Port:        v.GetString("PORT"),
		MetricsPort: v.GetString("METRICS_PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DBURL:       v.GetString("DB_URL"),

		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTIssuer:            v.GetString("JWT_ISSUER"),
		JWTAudience:          v.GetString("JWT_AUDIENCE"),
		AccessTokenExpiryMin: v.GetInt("ACCESS_TOKEN_EXPIRY"),

		MaxFailedAttempts: v.GetInt("MAX_FAILED_ATTEMPTS"),
		LockoutMinutes:    v.GetInt("LOCKOUT_MINUTES"),

		PasswordMinLength:          v.GetInt("PASSWORD_MIN_LENGTH"),
		PasswordRequireDigit:       v.GetBool("PASSWORD_REQUIRE_DIGIT"),
		PasswordRequireUppercase:   v.GetBool("PASSWORD_REQUIRE_UPPERCASE"),
		PasswordRequireNonAlphanum: v.GetBool("PASSWORD_REQUIRE_NONALNUM"),
	}
}
