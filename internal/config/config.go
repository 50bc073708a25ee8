package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	OpenAI     ProviderConfig `envPrefix:"OPENAI_"`
	Groq       ProviderConfig `envPrefix:"GROQ_"`
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Benchmark  BenchmarkConfig
	Scoring    ScoringConfig
}

// ServerConfig contains HTTP server settings for the dashboard API.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ProviderConfig contains per-provider API settings.
// BaseURL and Model defaults are filled in by Load, since env defaults
// cannot vary per prefix.
type ProviderConfig struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
	Model   string `env:"MODEL"`
	Timeout int    `env:"TIMEOUT" envDefault:"60"`
}

// DatabaseConfig contains local store settings.
type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH" envDefault:"data/markl.db"`
}

// RedisConfig contains generation cache settings.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"      envDefault:""`
	TTLHours int    `env:"CACHE_TTL_HOURS" envDefault:"24"`
}

// GenerationConfig contains default generation parameters.
type GenerationConfig struct {
	MaxTokens      int     `env:"MAX_TOKENS"              envDefault:"2000"`
	Temperature    float64 `env:"TEMPERATURE"             envDefault:"0.7"`
	FlashcardCount int     `env:"DEFAULT_FLASHCARD_COUNT" envDefault:"20"`
	QuizCount      int     `env:"DEFAULT_QUIZ_COUNT"      envDefault:"10"`
	SummaryLength  string  `env:"DEFAULT_SUMMARY_LENGTH"  envDefault:"medium"`
}

// BenchmarkConfig controls benchmark cell execution.
// Concurrency 1 runs cells sequentially.
type BenchmarkConfig struct {
	Concurrency int `env:"BENCHMARK_CONCURRENCY" envDefault:"1"`
}

// ScoringConfig contains the composite score weighting policy.
type ScoringConfig struct {
	QualityWeight float64 `env:"SCORE_WEIGHT_QUALITY" envDefault:"0.6"`
	CostWeight    float64 `env:"SCORE_WEIGHT_COST"    envDefault:"0.2"`
	SpeedWeight   float64 `env:"SCORE_WEIGHT_SPEED"   envDefault:"0.2"`
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultGroqModel     = "llama-3.1-70b-versatile"
)

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*DatabaseConfig
	*RedisConfig
	*GenerationConfig
	*BenchmarkConfig
	*ScoringConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}
	if cfg.Groq.BaseURL == "" {
		cfg.Groq.BaseURL = defaultGroqBaseURL
	}
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Database,
		&cfg.Redis,
		&cfg.Generation,
		&cfg.Benchmark,
		&cfg.Scoring,
	}
}
