package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// LLM settings
	LLMProvider        string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiModel        string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	OpenAIModel        string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`
	YandexOAuthToken   string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string `env:"YANDEX_FOLDER_ID"`

	// Storage. Empty MONGODB_URI falls back to the in-memory store.
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"checkin_bot"`

	// Trigger boundary
	Port      int    `env:"PORT" envDefault:"3000"`
	CronToken string `env:"CRON_TOKEN,required"`

	// Optional in-process daily schedule (cron spec, UTC).
	// Empty means only the HTTP trigger runs the batch.
	DailyCron string `env:"DAILY_CRON"`

	// Static files
	StaticFilesPath string `env:"STATIC_FILES_PATH" envDefault:"static/"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
