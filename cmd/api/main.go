package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"feedback-hub/internal/adapters/expo"
	"feedback-hub/internal/adapters/repo"
	"feedback-hub/internal/domain"
	httpapi "feedback-hub/internal/http"
	"feedback-hub/internal/infra/config"
	"feedback-hub/internal/infra/db"
	loginfra "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/infra/ws"
	"feedback-hub/internal/usecase/classify"
	"feedback-hub/internal/usecase/intake"
	"feedback-hub/internal/usecase/notify"
)

func main() {
	cfg := config.Load()
	log.Logger = loginfra.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("api: не удалось подготовить схему")
	}

	expoClient := expo.NewClient(expo.Config{
		BaseURL:     cfg.Expo.BaseURL,
		AccessToken: cfg.Expo.AccessToken,
		Timeout:     cfg.Expo.Timeout,
	})
	hub := ws.NewHub(log.With().Str("component", "ws").Logger())

	var pushQueue domain.PushQueue
	switch {
	case cfg.AMQPURL != "":
		q, err := queue.NewAMQPPushQueue(cfg.AMQPURL, cfg.Queues.Push)
		if err != nil {
			log.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer q.Close()
		pushQueue = q
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		pushQueue = queue.NewRedisPushQueue(client, cfg.Queues.Push)
	}

	dispatcher := notify.NewDispatcher(hub, repoAdapter, expoClient, pushQueue,
		log.With().Str("component", "notify").Logger())
	classifier := classify.New(cfg.Intake.ComplaintKeywords)
	intakeService := intake.NewService(repoAdapter, repoAdapter, classifier, dispatcher)

	apiServer := httpapi.NewServer(intakeService,
		httpapi.WithLogger(log.With().Str("component", "api").Logger()),
		httpapi.WithHub(hub))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: apiServer.Router(),
	}
	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("api: старт")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
