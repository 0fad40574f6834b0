// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Dialogflow    DialogflowConfig
	Gemini        GeminiConfig
	Store         StoreConfig
	STT           STTConfig
	Audio         AudioConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
	Interview     InterviewConfig
}

type ServiceConfig struct {
	Principal       string
	Port            string
	Debug           bool
	Environment     string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	InterviewConfig string // optional YAML file overriding interview defaults
}

// DialogflowConfig identifies the Dialogflow CX agent that runs the interview.
type DialogflowConfig struct {
	Provider     string // dialogflow, mock
	Credentials  string // service account JSON blob; empty means application default credentials
	ProjectID    string
	LocationID   string
	AgentID      string
	LanguageCode string
}

type GeminiConfig struct {
	Provider    string // gemini, mock
	APIKey      string
	Model       string
	Temperature float64
}

type StoreConfig struct {
	Backend             string // memory, firestore, mongo
	FirestoreProjectID  string
	FirestoreCollection string
	MongoURI            string
	MongoDatabase       string
	MongoCollection     string
}

// STTConfig selects where spoken answers are transcribed.
type STTConfig struct {
	Provider     string // dialogflow (native), google (Cloud Speech)
	LanguageCode string
}

type AudioConfig struct {
	MaxBytes int64
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicTurns     string
	TopicLifecycle string
	Principal      string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads configuration from an optional .env file and the process environment.
// Invalid values fall back to defaults.
func Load() *Config {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-interview")
	debug := envOrDefaultBool("DEBUG", false)
	environment := os.Getenv("ENV")

	logLevel := envOrDefault("LOG_LEVEL", "info")
	logFormat := envOrDefault("LOG_FORMAT", "json")
	if environment == "dev" {
		logFormat = "console"
	}
	if debug {
		logLevel = "debug"
		logFormat = "console"
	}

	projectID := firstEnv("GCP_PROJECT_ID", "DIALOGFLOW_PROJECT_ID")

	cfg := &Config{
		Service: ServiceConfig{
			Principal:   principal,
			Port:        envOrDefault("PORT", "5001"),
			Debug:       debug,
			Environment: environment,
			CORSOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),

			ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			InterviewConfig: os.Getenv("INTERVIEW_CONFIG"),
		},
		Dialogflow: DialogflowConfig{
			Provider:     envOrDefault("DIALOGUE_PROVIDER", "dialogflow"),
			Credentials:  os.Getenv("GOOGLE_CREDENTIALS"),
			ProjectID:    projectID,
			LocationID:   orDefault(firstEnv("DF_LOCATION_ID", "DIALOGFLOW_LOCATION_ID"), "us-central1"),
			AgentID:      firstEnv("DF_AGENT_ID", "DIALOGFLOW_AGENT_ID"),
			LanguageCode: envOrDefault("DIALOGFLOW_LANGUAGE_CODE", "en"),
		},
		Gemini: GeminiConfig{
			Provider:    envOrDefault("SCORER_PROVIDER", "gemini"),
			APIKey:      firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Model:       envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			Temperature: envOrDefaultFloat("GEMINI_TEMPERATURE", 0.2),
		},
		Store: StoreConfig{
			Backend:             storeBackend(),
			FirestoreProjectID:  orDefault(os.Getenv("FIRESTORE_PROJECT_ID"), projectID),
			FirestoreCollection: envOrDefault("FIRESTORE_COLLECTION", "interview_sessions"),
			MongoURI:            os.Getenv("MONGODB_URI"),
			MongoDatabase:       envOrDefault("MONGODB_DATABASE", "interview"),
			MongoCollection:     envOrDefault("MONGODB_COLLECTION", "interview_sessions"),
		},
		STT: STTConfig{
			Provider:     envOrDefault("STT_PROVIDER", "dialogflow"),
			LanguageCode: envOrDefault("STT_LANGUAGE_CODE", "en-US"),
		},
		Audio: AudioConfig{
			MaxBytes: envOrDefaultInt64("AUDIO_MAX_BYTES", 10*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        splitList(os.Getenv("KAFKA_BROKERS")),
			TopicTurns:     envOrDefault("KAFKA_TOPIC_TURNS", "interview.transcript.turn"),
			TopicLifecycle: envOrDefault("KAFKA_TOPIC_LIFECYCLE", "interview.session.lifecycle"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    logLevel,
			LogFormat:   logFormat,
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Interview: DefaultInterview(),
	}

	return cfg
}

// storeBackend honours STORE_BACKEND and falls back to the legacy USE_REPLIT_DB switch.
func storeBackend() string {
	if v := strings.ToLower(os.Getenv("STORE_BACKEND")); v != "" {
		return v
	}
	if envOrDefaultBool("USE_REPLIT_DB", true) {
		return "memory"
	}
	return "firestore"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
