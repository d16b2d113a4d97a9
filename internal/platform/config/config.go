package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CompetitionQueueName  string
	ResultsCacheTTL       time.Duration
	DefaultAgentTimeout   time.Duration
	DefaultMaxIterations  int
	EvaluatorTimeout      time.Duration
	EvaluatorPythonBinary string

	AnthropicAPIKey   string
	AnthropicBaseURL  string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMRequestTimeout time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort: getEnv("API_PORT", "8080"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBEnabled:  getEnvAsBool("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "arena_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CompetitionQueueName:  getEnv("COMPETITION_QUEUE_NAME", "competition_jobs_queue"),
		ResultsCacheTTL:       time.Duration(getEnvAsInt("RESULTS_CACHE_TTL_MINUTES", 60)) * time.Minute,
		DefaultAgentTimeout:   time.Duration(getEnvAsInt("DEFAULT_AGENT_TIMEOUT_SECONDS", 300)) * time.Second,
		DefaultMaxIterations:  getEnvAsInt("DEFAULT_MAX_ITERATIONS", 3),
		EvaluatorTimeout:      time.Duration(getEnvAsInt("EVALUATOR_TIMEOUT_SECONDS", 10)) * time.Second,
		EvaluatorPythonBinary: getEnv("EVALUATOR_PYTHON_BINARY", "python3"),

		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL:  getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		LLMRequestTimeout: time.Duration(getEnvAsInt("LLM_REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
