package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/rs/zerolog/log"

	"pantry-scan/api/internal/app"
	"pantry-scan/api/internal/config"
	"pantry-scan/api/internal/httpserver"
	"pantry-scan/api/internal/telegram"
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
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Fatal().Msg("missing required env TELEGRAM_BOT_TOKEN")
	}
	log.Info().Str("version", version.Info()).Msg("starting " + config.AppName + " bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring")
	}
	defer a.Close()

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram")
	}
	bot.Debug = false

	r := telegram.NewRouter(bot, a.Service, "")

	// --- HTTP mux (DefaultServeMux) ---
	// ListenForWebhook регистрирует обработчик на DefaultServeMux, поэтому healthz и metrics тоже там.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := a.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	http.Handle(cfg.MetricsPath, promhttp.Handler())

	// --- Choose mode: Webhook vs Polling ---
	handleUpdate := func(upd tgbotapi.Update) { go r.HandleUpdate(ctx, upd) }
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := registerWebhook(bot, webhookURL, handleUpdate); err != nil {
			log.Fatal().Err(err).Msg("webhook")
		}
	} else {
		go runPolling(ctx, bot, handleUpdate)
	}

	if err := httpserver.Run(ctx, cfg.Addr(), http.DefaultServeMux); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
	log.Info().Msg("shutdown complete")
}

// ---------------- Modes -----------------

func registerWebhook(bot *tgbotapi.BotAPI, baseURL string, handle func(tgbotapi.Update)) error {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			handle(upd)
		}
		log.Info().Msg("webhook updates channel closed")
	}()
	log.Info().Str("path", path).Msg("webhook registered")
	return nil
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		if ctx.Err() != nil {
			log.Info().Msg("polling: context cancelled")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn().Err(err).Dur("retry_in", d).Msg("polling error")
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
