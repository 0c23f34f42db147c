package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/prometheus/exporter-toolkit/web"
	"github.com/rs/zerolog/log"

	"pantry-scan/api/internal/app"
	"pantry-scan/api/internal/config"
	"pantry-scan/api/internal/handle"
	"pantry-scan/api/internal/httpserver"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.InitLogger(os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	log.Info().Str("version", version.Info()).Msg("starting " + config.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring")
	}
	defer a.Close()

	h := handle.New(a.Service, handle.Options{
		Secret:       cfg.APISecretKey,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Production:   cfg.Production(),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		handle.Healthz(w, r)
	})
	mux.Handle(cfg.MetricsPath, promhttp.Handler())
	mux.HandleFunc("/api/scan", h.Scan)

	var landing http.Handler
	if cfg.MetricsPath != "/" {
		landing, err = web.NewLandingPage(web.LandingConfig{
			Name:        config.AppName,
			Description: config.AppDesc,
			Version:     version.Print(config.AppName),
			Links: []web.LandingLinks{
				{Address: cfg.MetricsPath, Text: "Metrics"},
				{Address: "/healthz", Text: "Health"},
			},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("landing page")
		}
		mux.HandleFunc("/", h.Root(landing))
	}

	if err := httpserver.Run(ctx, cfg.Addr(), h.Wrap(mux)); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
	log.Info().Msg("shutdown complete")
}
