package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
	LLMProviderNone   = "none"
)

// Config centraliza la configuración del servicio.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"career-advisor"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey    string        `env:"LLM_API_KEY"`
	LLMBaseURL   string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"10s"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	GenerationRateLimit  int           `env:"GENERATION_RATE_LIMIT" envDefault:"10"`
	GenerationRateWindow time.Duration `env:"GENERATION_RATE_WINDOW" envDefault:"1h"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"career-advisor.events"`

	OtelEnabled  bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelExporter string  `env:"OTEL_EXPORTER" envDefault:"stdout"`
	OtelEndpoint string  `env:"OTEL_ENDPOINT"`
	OtelSampling float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TextGenerationEnabled indica si hay credenciales para el proveedor elegido.
func (c *Config) TextGenerationEnabled() bool {
	switch c.LLMProvider {
	case LLMProviderOpenAI:
		return c.LLMAPIKey != ""
	case LLMProviderGemini:
		return c.GeminiAPIKey != ""
	default:
		return false
	}
}
