package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Gemini (chat responder)
	GeminiAPIKey  string
	GeminiModelID string
	LLMTimeout    time.Duration

	// Response cache
	ResponseCacheTTL      time.Duration
	ResponseCacheCapacity int

	// Twilio voice
	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioPhoneNumber      string
	TwilioWebhookSecret    string
	TwilioVoiceWebhookURL  string
	TwilioStatusCallback   string
	CallTranscriptCapacity int
	CallTranscriptTTL      time.Duration

	// Google Sheets call-summary export
	SpreadsheetID         string
	SheetsRange           string
	GoogleCredentialsJSON string

	// Primary document store (DynamoDB)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	LeadsTable          string
	AppointmentsTable   string
	ConversationsTable  string
	UsersTable          string
	MetricsTable        string
	StoreEnabled        bool
	StoreTimeout        time.Duration

	// Flat-file fallback store
	DataDir     string
	CalendarDir string

	// Session store / response cache backend
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Dashboard auth
	DashboardUser         string
	DashboardPassword     string
	DashboardPasswordHash string
	DashboardJWTSecret    string
	DashboardTokenTTL     time.Duration

	// Lead notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	LeadNotifyEmail   string

	CORSAllowedOrigins []string

	// Per-IP throttle on the chat endpoint; zero disables it.
	ChatRateLimit float64
	ChatRateBurst int

	// Company content file feeding the FAQ table and LLM prompt
	CompanyContentPath string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.0-flash"),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 15*time.Second),

		ResponseCacheTTL:      getEnvAsDuration("RESPONSE_CACHE_TTL", time.Hour),
		ResponseCacheCapacity: getEnvAsInt("RESPONSE_CACHE_CAPACITY", 512),

		TwilioAccountSID:       getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:        getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:      getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioWebhookSecret:    getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioVoiceWebhookURL:  getEnv("TWILIO_VOICE_WEBHOOK_URL", ""),
		TwilioStatusCallback:   getEnv("TWILIO_STATUS_CALLBACK_URL", ""),
		CallTranscriptCapacity: getEnvAsInt("CALL_TRANSCRIPT_CAPACITY", 256),
		CallTranscriptTTL:      getEnvAsDuration("CALL_TRANSCRIPT_TTL", 2*time.Hour),

		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("GOOGLE_SHEETS_RANGE_NAME", "Calls!A:E"),
		GoogleCredentialsJSON: googleCredentials(),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		LeadsTable:          getEnv("LEADS_TABLE", "leads"),
		AppointmentsTable:   getEnv("APPOINTMENTS_TABLE", "appointments"),
		ConversationsTable:  getEnv("CONVERSATIONS_TABLE", "conversations"),
		UsersTable:          getEnv("USERS_TABLE", "users"),
		MetricsTable:        getEnv("METRICS_TABLE", "metrics"),
		StoreEnabled:        getEnvAsBool("STORE_ENABLED", false),
		StoreTimeout:        getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),

		DataDir:     getEnv("DATA_DIR", "."),
		CalendarDir: getEnv("CALENDAR_DIR", "appointments"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		DashboardUser:         getEnv("DASHBOARD_USER", "imsol"),
		DashboardPassword:     getEnv("DASHBOARD_PASSWORD", ""),
		DashboardPasswordHash: getEnv("DASHBOARD_PASSWORD_HASH", ""),
		DashboardJWTSecret:    getEnv("DASHBOARD_JWT_SECRET", ""),
		DashboardTokenTTL:     getEnvAsDuration("DASHBOARD_TOKEN_TTL", 12*time.Hour),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "IM Solutions"),
		LeadNotifyEmail:   getEnv("LEAD_NOTIFY_EMAIL", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		ChatRateLimit: getEnvAsFloat("CHAT_RATE_LIMIT", 5),
		ChatRateBurst: getEnvAsInt("CHAT_RATE_BURST", 10),

		CompanyContentPath: getEnv("COMPANY_CONTENT_PATH", "company_content.json"),
	}
}

// googleCredentials reads the Sheets service-account JSON, accepting a
// base64-encoded variant for environments where raw JSON in env vars is
// awkward.
func googleCredentials() string {
	if raw := os.Getenv("GOOGLE_CREDENTIALS_JSON"); raw != "" {
		return raw
	}
	if b64 := os.Getenv("GOOGLE_CREDENTIALS_JSON_B64"); b64 != "" {
		if decoded, err := base64.StdEncoding.DecodeString(b64); err == nil {
			return string(decoded)
		}
	}
	return ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
