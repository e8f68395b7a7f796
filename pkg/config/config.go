package config

import (
	"os"
	"strconv"
	"time"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
)

type Config struct {
	Port     string
	LogLevel string

	// BaseURL is the externally reachable root used when building webhook
	// action URLs handed to the telephony provider. Never derived from the
	// request Host header in production.
	BaseURL string

	SessionBackend    string // "memory" or "redis"
	RedisURL          string
	SessionTTLMinutes int
	SweepIntervalSecs int

	LLMEndpoint  string
	LLMTimeoutMS int64

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
}

func Load() *Config {
	return &Config{
		Port:              getEnv(constants.EnvPort, "8080"),
		LogLevel:          getEnv(constants.EnvLogLevel, "info"),
		BaseURL:           getEnv(constants.EnvBaseURL, "http://localhost:8080"),
		SessionBackend:    getEnv(constants.EnvSessionBackend, "memory"),
		RedisURL:          getEnv(constants.EnvRedisURL, "redis://localhost:6379"),
		SessionTTLMinutes: getEnvInt(constants.EnvSessionTTLMinutes, constants.DefaultSessionTTLMinutes),
		SweepIntervalSecs: getEnvInt(constants.EnvSweepInterval, constants.DefaultSweepIntervalSeconds),
		LLMEndpoint:       getEnv(constants.EnvLLMEndpoint, ""),
		LLMTimeoutMS:      getEnvInt64(constants.EnvLLMTimeoutMS, constants.DefaultLLMTimeoutMS),
		TwilioAccountSID:  getEnv(constants.EnvTwilioAccountSID, ""),
		TwilioAuthToken:   getEnv(constants.EnvTwilioAuthToken, ""),
		TwilioPhoneNumber: getEnv(constants.EnvTwilioPhoneNumber, ""),
	}
}

func (c *Config) SessionTTL() time.Duration {
	return constants.MinutesToDuration(c.SessionTTLMinutes)
}

func (c *Config) SweepInterval() time.Duration {
	return constants.SecondsToDuration(c.SweepIntervalSecs)
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
