package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/libs/config"
	"github.com/meetwise-labs/meetwise/libs/httpx"
	"github.com/meetwise-labs/meetwise/libs/kafkax"
	otelx "github.com/meetwise-labs/meetwise/libs/otel"
	"github.com/meetwise-labs/meetwise/libs/runtime"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/cache"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/calendarclient"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/consumer"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/grpcsource"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/handlers"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/search"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8082")
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

	// Home and display default to the same zone; splitting them is opt-in.
	// With home behind display, late evening slots cross the display-zone
	// midnight and fall off their pinned calendar date.
	display, err := config.Location("DISPLAY_TIMEZONE", "Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	home, err := config.Location("HOME_TIMEZONE", display.String())
	if err != nil {
		panic(err)
	}

	var source search.Source
	if target := config.String("CALENDAR_GRPC_TARGET", ""); target != "" {
		src, err := grpcsource.New(target)
		if err != nil {
			logger.Error("calendar grpc source unavailable", "err", err)
		}
		source = src
	}
	if source == nil {
		calendarURL, err := config.RequiredString("CALENDAR_SERVICE_URL")
		if err != nil {
			panic(err)
		}
		source = calendarclient.New(calendarURL, 5*time.Second)
	}

	checks := []runtime.ReadyCheck{}
	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		ttl := config.DurationMinutes("BUSY_CACHE_TTL_MINUTES", 5*time.Minute)
		cached := cache.NewBusySource(source, rdb, logger, ttl)
		source = cached
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
			group := config.String("KAFKA_GROUP_ID", "availability-service")
			for _, topic := range splitTopics(config.String("KAFKA_EVENT_TOPICS", "calendar.event.created.v1,calendar.event.cancelled.v1")) {
				c := consumer.New(logger, cached, consumer.Config{
					Brokers: brokers,
					GroupID: group,
					Topic:   topic,
				})
				go c.Run(ctx)
			}
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		}
	}

	engine := search.NewEngine(source, logger, search.Config{
		Home:    home,
		Display: display,
		Stride:  config.DurationMinutes("SLOT_STRIDE_MINUTES", 60*time.Minute),
		Timeout: config.DurationMinutes("CALENDAR_FETCH_TIMEOUT_MINUTES", time.Minute),
		Policy:  busy.Policy{AllDayBlocks: config.String("ALL_DAY_EVENTS_BLOCK", "false") == "true"},
	})

	mux := runtime.NewBaseMuxWithReady(checks...)
	h := handlers.NewAvailabilityHandler(engine, logger, home, display)
	mux.HandleFunc("/api/v1/availability/search", h.Search)
	mux.HandleFunc("/api/v1/availability/filter", h.Filter)

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, "rl:availability")
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}
	handler := httpx.Chain(mux, middlewares...)
	handler = otelhttp.NewHandler(handler, "availability")
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

func splitTopics(s string) []string {
	parts := strings.Split(s, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
