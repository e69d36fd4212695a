package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	IntakeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_intake_total",
		Help: "Количество принятых обращений по категориям",
	}, []string{"category"})

	PushBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_batches_total",
		Help: "Количество отправленных пачек push-уведомлений",
	}, []string{"status"})

	PushTokensSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_tokens_skipped_total",
		Help: "Пропущенные push-токены с некорректным форматом",
	})

	PushTokensRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_tokens_removed_total",
		Help: "Push-токены, удалённые после DeviceNotRegistered",
	})

	WSConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "Текущее количество подключённых админских сессий",
	})

	WSBroadcastDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_broadcast_dropped_total",
		Help: "События, не доставленные медленным сессиям",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		IntakeTotal,
		PushBatchesTotal,
		PushTokensSkipped,
		PushTokensRemoved,
		WSConnectedClients,
		WSBroadcastDropped,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest фиксирует длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncIntake увеличивает счётчик принятых обращений.
func IncIntake(category string) {
	IntakeTotal.WithLabelValues(category).Inc()
}

// IncPushBatch увеличивает счётчик отправленных пачек.
func IncPushBatch(status string) {
	PushBatchesTotal.WithLabelValues(status).Inc()
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}
