package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"feedback-hub/internal/adapters/expo"
	"feedback-hub/internal/adapters/repo"
	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/config"
	"feedback-hub/internal/infra/db"
	loginfra "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/usecase/notify"
)

// notifier читает push-задачи из очереди и выполняет пакетную рассылку.
// Используется, когда API работает с внешней очередью вместо фоновых горутин.
func main() {
	cfg := config.Load()
	log.Logger = loginfra.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	expoClient := expo.NewClient(expo.Config{
		BaseURL:     cfg.Expo.BaseURL,
		AccessToken: cfg.Expo.AccessToken,
		Timeout:     cfg.Expo.Timeout,
	})

	var pushQueue domain.PushQueue
	switch {
	case cfg.AMQPURL != "":
		q, err := queue.NewAMQPPushQueue(cfg.AMQPURL, cfg.Queues.Push)
		if err != nil {
			log.Fatal().Err(err).Msg("notifier: нет подключения к RabbitMQ")
		}
		defer q.Close()
		pushQueue = q
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		pushQueue = queue.NewRedisPushQueue(client, cfg.Queues.Push)
	default:
		log.Fatal().Msg("notifier: очередь не настроена (REDIS_ADDR или AMQP_URL)")
	}

	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)
	dispatcher := notify.NewDispatcher(nil, repoAdapter, expoClient, nil,
		log.With().Str("component", "notify").Logger())

	log.Info().Msg("notifier: старт")
	for {
		job, err := pushQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			continue
		}
		dispatcher.DeliverPush(ctx, job)
	}
	log.Info().Msg("notifier: остановка")
}
