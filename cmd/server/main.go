package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trainbook/internal/api"
	"trainbook/internal/config"
	"trainbook/internal/domain"
	"trainbook/internal/events"
	"trainbook/internal/export"
	"trainbook/internal/logging"
	"trainbook/internal/metrics"
	"trainbook/internal/models"
	"trainbook/internal/repository"
	"trainbook/internal/seatmap"
	"trainbook/internal/service"
	"trainbook/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	seats, err := seatmap.New(cfg.Seating.TotalSeats, cfg.Seating.SeatsPerRow, cfg.Seating.LastRowSeats)
	if err != nil {
		logger.Error().Err(err).Msg("Некорректная геометрия мест")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookingStore, closeStore, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	redisClient, sessionRepo := initSessionRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	metrics.Register()

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	engine, err := service.NewEngine(ctx, seats, bookingStore, sessionRepo, eventBus,
		cfg.Seating.MaxSeatsPerBooking, service.DefaultIDGenerator, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации движка бронирования")
		return err
	}

	exporter := export.NewExporter(bookingStore, seats, cfg.Exports, &logger)

	if cfg.Backup.Enabled {
		backupService := store.NewBackupService(cfg.Store.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go servePrometheus(cfg.Monitoring.PrometheusPort, &logger)
	}

	apiServer := api.NewHTTPServer(cfg.API, engine, seats, exporter, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()
	defer func() {
		_ = apiServer.Shutdown(context.Background())
	}()

	logger.Info().
		Int("total_seats", seats.TotalSeats).
		Str("store_backend", cfg.Store.Backend).
		Msg("Сервис бронирования запущен")

	<-ctx.Done()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для хранилища")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.BookingStore, func() error, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := store.NewFileStore(cfg.Store.Path, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Ошибка инициализации файлового хранилища")
			return nil, nil, err
		}
		return s, nil, nil
	}
}

func initSessionRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SessionRepository) {
	ttl := time.Duration(models.DefaultSessionTTL) * time.Second
	fallbackRepo := repository.NewMemorySessionRepository(ttl)

	if cfg.Redis.Address == "" {
		return nil, fallbackRepo
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if errPing := repository.Ping(ctx, redisClient); errPing != nil {
		logger.Warn().Err(errPing).Msg("Redis unavailable")
	}

	primaryRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	return redisClient, repository.NewFailoverSessionRepository(primaryRepo, fallbackRepo, logger)
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	bus.Subscribe(events.EventBookingCommitted, func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		logger.Info().
			Str("session_id", payload.SessionID).
			Ints("seats", payload.SeatNumbers).
			Msg("booking committed")
		return nil
	})
}

func servePrometheus(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Prometheus server error")
	}
}
