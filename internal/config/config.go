// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек приложения.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	PayPal                  `yaml:"paypal"`
	Line                    `yaml:"line"`
	Resend                  `yaml:"resend"`
	LLM                     `yaml:"llm"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// PayPal структура с учётными данными платёжного провайдера.
// APIURL указывает на sandbox либо боевой контур.
type PayPal struct {
	PayPalAPIURL       string `yaml:"api_url" env-default:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `yaml:"webhook_id" env:"PAYPAL_WEBHOOK_ID"`
}

// Line структура с учётными данными LINE Messaging API.
type Line struct {
	LineChannelSecret      string `yaml:"channel_secret" env:"LINE_CHANNEL_SECRET"`
	LineChannelAccessToken string `yaml:"channel_access_token" env:"LINE_CHANNEL_ACCESS_TOKEN"`
}

// Resend структура для отправки почты через Resend API.
type Resend struct {
	ResendAPIKey string `yaml:"api_key" env:"RESEND_API_KEY"`
	ResendFrom   string `yaml:"from" env-default:"no-reply@counselor.example"`
}

// LLM структура с ключами и моделями LLM-провайдеров.
type LLM struct {
	OpenAIAPIKey        string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	AnthropicAPIKey     string `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey        string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	OpenAIModel         string `yaml:"openai_model" env-default:"gpt-4o-mini"`
	ClaudeModel         string `yaml:"claude_model" env-default:"claude-3-haiku-20240307"`
	ClaudeFallbackModel string `yaml:"claude_fallback_model" env-default:"claude-3-haiku-20240307"`
	GeminiModel         string `yaml:"gemini_model" env-default:"gemini-2.5-flash"`
	GeminiFallbackModel string `yaml:"gemini_fallback_model" env-default:"gemini-2.5-pro"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
