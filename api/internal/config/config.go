package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AppName = "pantry-scan"
	AppDesc = "Turns a photo of a grocery receipt or a meal into structured JSON using a vision language model."
)

type Config struct {
	ListenAddress string `env:"LISTEN_ADDRESS" help:"${env} - Address to listen on" default:":8080"`
	Port          string `env:"PORT" help:"${env} - Port to listen on; overrides LISTEN_ADDRESS"`
	AppEnv        string `env:"APP_ENV" help:"${env} - 'production' hides stack traces and skips .env" default:"development"`

	VisionProvider  string        `env:"VISION_PROVIDER" help:"${env} - Default upstream model: gpt or gemini" enum:"gpt,openai,gemini" default:"gpt"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY" help:"${env} - OpenAI API key"`
	OpenAIModel     string        `env:"OPENAI_MODEL" help:"${env} - OpenAI model" default:"gpt-4o-mini"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL" help:"${env} - OpenAI-compatible API base URL"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY" help:"${env} - Gemini API key"`
	GeminiModel     string        `env:"GEMINI_MODEL" help:"${env} - Gemini model" default:"gemini-2.5-flash"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" help:"${env} - Timeout of the upstream HTTP client" default:"60s"`

	APISecretKey string `env:"API_SECRET_KEY" help:"${env} - Shared secret expected as 'Authorization: Bearer <key>'"`
	PromptsPath  string `env:"PROMPTS_PATH" help:"${env} - YAML file overriding the built-in prompts"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" help:"${env} - Request body limit in bytes" default:"20971520"`
	MetricsPath  string `env:"METRICS_PATH" help:"${env} - Path under which to expose metrics" default:"/metrics"`
	LogLevel     string `env:"LOG_LEVEL" help:"${env} - trace, debug, info, warn or error" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" help:"${env} - json or console" enum:"json,console" default:"json"`

	DatabaseURL    string        `env:"DATABASE_URL" help:"${env} - Postgres DSN for unparsed model answers"`
	DiagRetention  time.Duration `env:"DIAG_RETENTION" help:"${env} - Purge unparsed answers older than this at startup; 0 keeps all" default:"720h"`
	DiagS3Bucket   string        `env:"DIAG_S3_BUCKET" help:"${env} - S3 bucket for unparsed model answers"`
	DiagS3Prefix   string        `env:"DIAG_S3_PREFIX" help:"${env} - Key prefix inside DIAG_S3_BUCKET" default:"unparsed"`
	AWSEndpointURL string        `env:"AWS_ENDPOINT_URL" help:"${env} - Custom S3 endpoint (MinIO, localstack)"`
	AWSRegion      string        `env:"AWS_REGION" help:"${env} - AWS region"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" help:"${env} - Telegram bot token (bot only)"`
	WebhookURL       string `env:"WEBHOOK_URL" help:"${env} - Public webhook URL; empty means long polling (bot only)"`
}

// LoadDotEnv reads .env outside production. Variables already set win.
func LoadDotEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// Load parses flags and environment. args excludes the program name.
func Load(args []string, opts ...kong.Option) (*Config, error) {
	var cfg Config
	opts = append([]kong.Option{
		kong.Name(AppName),
		kong.Description(AppDesc),
	}, opts...)
	parser, err := kong.New(&cfg, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.MetricsPath = strings.TrimSpace(c.MetricsPath)
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("METRICS_PATH must be an absolute path, got %q", c.MetricsPath)
	}
	switch c.MetricsPath {
	case "/healthz", "/api/scan":
		return fmt.Errorf("METRICS_PATH %q collides with a service route", c.MetricsPath)
	}
	return nil
}

func (c *Config) Addr() string {
	if p := strings.TrimSpace(c.Port); p != "" {
		return ":" + p
	}
	return c.ListenAddress
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// InitLogger configures the global zerolog logger.
func (c *Config) InitLogger(w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
