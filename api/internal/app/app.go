package app

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"pantry-scan/api/internal/config"
	"pantry-scan/api/internal/metrics"
	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/prompt"
	"pantry-scan/api/internal/scan"
	"pantry-scan/api/internal/store"
	"pantry-scan/api/internal/vision"
	"pantry-scan/api/internal/vision/gemini"
	"pantry-scan/api/internal/vision/gpt"
)

// App is everything a front-end (HTTP or Telegram) needs to run scans.
type App struct {
	Service *scan.Service
	Metrics *metrics.Recorder
	DB      *sql.DB // nil without DATABASE_URL
}

// Build wires engines, prompts, diagnostics sinks and metrics from cfg.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	prompts, err := prompt.Load(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}

	g := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	g.Timeout = cfg.UpstreamTimeout
	engines := &vision.Engines{
		OpenAI:  gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.UpstreamTimeout),
		Gemini:  g,
		Default: cfg.VisionProvider,
	}
	if _, err := engines.GetEngine(""); err != nil {
		return nil, err
	}
	for _, e := range []vision.Engine{engines.OpenAI, engines.Gemini} {
		if !e.Configured() {
			log.Warn().Str("provider", e.Name()).Msg("no API key; scans with this provider will fail")
		}
	}

	a := &App{Metrics: metrics.New(reg)}

	var sinks normalize.MultiSink
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		repo, db, err := openUnparsedRepo(ctx, dsn, cfg.DiagRetention)
		if err != nil {
			return nil, err
		}
		a.DB = db
		sinks = append(sinks, repo)
	}
	if cfg.DiagS3Bucket != "" {
		awsCfg, err := store.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		sinks = append(sinks, store.NewS3Sink(awsCfg, cfg.DiagS3Bucket, cfg.DiagS3Prefix, cfg.AWSEndpointURL))
		log.Info().Str("bucket", cfg.DiagS3Bucket).Str("prefix", cfg.DiagS3Prefix).Msg("unparsed answers go to s3")
	}

	var sink normalize.Sink
	if len(sinks) > 0 {
		sink = sinks
	}
	a.Service = scan.New(engines, prompts, normalize.New(sink), a.Metrics)
	return a, nil
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Ping reports whether the diagnostics database, if any, is reachable.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

func openUnparsedRepo(ctx context.Context, dsn string, retention time.Duration) (*store.UnparsedRepo, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	// диагностика пишется редко, большой пул не нужен
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db.Ping: %w", err)
	}
	log.Info().Str("db", SafeDSNSummary(dsn)).Msg("db connected")

	repo := store.NewUnparsedRepo(db)
	if err := repo.EnsureSchema(pctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	if retention > 0 {
		n, err := repo.PurgeOlderThan(pctx, retention)
		if err != nil {
			log.Warn().Err(err).Msg("purge unparsed answers")
		} else if n > 0 {
			log.Info().Int64("rows", n).Msg("purged old unparsed answers")
		}
	}
	return repo, db, nil
}

// SafeDSNSummary describes dsn without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
