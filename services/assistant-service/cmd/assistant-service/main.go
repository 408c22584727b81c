package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/libs/config"
	"github.com/meetwise-labs/meetwise/libs/httpx"
	otelx "github.com/meetwise-labs/meetwise/libs/otel"
	"github.com/meetwise-labs/meetwise/libs/runtime"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/clients"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/conversation"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/handlers"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/llm"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "assistant-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	availabilityURL, err := config.RequiredString("AVAILABILITY_SERVICE_URL")
	if err != nil {
		panic(err)
	}
	calendarURL, err := config.RequiredString("CALENDAR_SERVICE_URL")
	if err != nil {
		panic(err)
	}
	tz, err := config.Location("HOME_TIMEZONE", "Asia/Kolkata")
	if err != nil {
		panic(err)
	}

	var extractor llm.Extractor = llm.RuleExtractor{}
	var replier llm.ReplyGenerator = llm.StaticReplier{}
	if apiKey := config.String("OPENAI_API_KEY", ""); apiKey != "" {
		llmCfg := llm.Config{
			APIKey:  apiKey,
			BaseURL: config.String("OPENAI_BASE_URL", ""),
			Model:   config.String("OPENAI_MODEL", ""),
		}
		extractor = llm.NewOpenAIExtractor(llmCfg, logger)
		replier = llm.NewOpenAIReplier(llmCfg, logger)
	} else {
		logger.Warn("no openai api key configured, using rule-based extraction only")
	}

	engine := conversation.NewEngine(
		clients.NewAvailabilityClient(availabilityURL, 15*time.Second),
		clients.NewCalendarClient(calendarURL, 10*time.Second),
		extractor,
		replier,
		logger,
		conversation.Config{
			CalendarID: config.String("CALENDAR_ID", "primary"),
			DaysAhead:  config.Int("SEARCH_DAYS_AHEAD", 14),
			Timezone:   tz,
		},
	)

	mux := runtime.NewBaseMuxWithReady()
	h := handlers.NewSessionHandler(session.NewStore(), engine, logger)
	mux.HandleFunc("/api/v1/sessions", h.Create)
	mux.HandleFunc("/api/v1/sessions/", h.Message)

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithTimeout(30 * time.Second),
		httpx.WithBodyLimit(64 << 10),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitOrigins(config.String("CORS_ALLOWED_ORIGINS", "")),
			MaxAge:         10 * time.Minute,
		}),
	}
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, "rl:assistant")
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}

	handler := httpx.Chain(mux, middlewares...)
	handler = otelhttp.NewHandler(handler, "assistant")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
