package constants

import "time"

// Default timing configuration values
const (
	// DefaultLLMTimeoutMS - hard budget for one generative round trip.
	// Telephony providers drop the call if the webhook response is slow.
	DefaultLLMTimeoutMS = 3000

	// DefaultLLMMaxRetries - retries for transient transport failures only
	DefaultLLMMaxRetries = 2

	// DefaultLLMRetryDelayMS - base delay before the first retry
	DefaultLLMRetryDelayMS = 300

	// DefaultRetryBackoffFactor - multiplicative backoff between retries
	DefaultRetryBackoffFactor = 2

	// DefaultSessionTTLMinutes - inactivity window before a session is evicted
	DefaultSessionTTLMinutes = 30

	// DefaultSweepIntervalSeconds - how often the background sweep runs
	DefaultSweepIntervalSeconds = 300

	// SweepChunkSize - sessions examined per sweep slice, so eviction never
	// holds the store for a full pass
	SweepChunkSize = 100
)

// Input handling thresholds
const (
	// SpeechConfidenceThreshold - minimum provider-reported confidence for a
	// speech transcript to be trusted over keypad digits
	SpeechConfidenceThreshold = 0.5

	// MaxSanitizedInputLength - user input is truncated to this many runes
	// before it is embedded in a generative prompt
	MaxSanitizedInputLength = 200
)

// Redis key prefixes
const (
	SessionKeyPrefix = "call_session:"
)

// Configuration environment variable names
const (
	EnvPort              = "PORT"
	EnvLogLevel          = "LOG_LEVEL"
	EnvBaseURL           = "BASE_URL"
	EnvSessionBackend    = "SESSION_BACKEND"
	EnvRedisURL          = "REDIS_URL"
	EnvSessionTTLMinutes = "SESSION_TTL_MINUTES"
	EnvSweepInterval     = "SWEEP_INTERVAL_SECONDS"
	EnvLLMEndpoint       = "LLM_ENDPOINT"
	EnvLLMTimeoutMS      = "LLM_TIMEOUT_MS"
	EnvTwilioAccountSID  = "TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken   = "TWILIO_AUTH_TOKEN"
	EnvTwilioPhoneNumber = "TWILIO_PHONE_NUMBER"
)

// SecondsToDuration converts a configured second count to a time.Duration.
func SecondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// MinutesToDuration converts a configured minute count to a time.Duration.
func MinutesToDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
