package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

const pushTimeout = 30 * time.Second

// Dispatcher доставляет сохранённое обращение по двум независимым каналам:
// live-рассылка подключённым сессиям и пакетные push-уведомления.
// Ошибки каналов логируются и никогда не доходят до вызывающего.
type Dispatcher struct {
	broadcaster domain.Broadcaster
	tokens      domain.DeviceTokenRepo
	provider    domain.PushProvider
	queue       domain.PushQueue
	log         zerolog.Logger
}

// NewDispatcher создаёт диспетчер. queue может быть nil — тогда push-рассылка
// выполняется в фоне без внешней очереди.
func NewDispatcher(broadcaster domain.Broadcaster, tokens domain.DeviceTokenRepo, provider domain.PushProvider, queue domain.PushQueue, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		broadcaster: broadcaster,
		tokens:      tokens,
		provider:    provider,
		queue:       queue,
		log:         logger,
	}
}

// Dispatch рассылает уведомления об обращении. Вызывается строго после
// успешного сохранения записи.
func (d *Dispatcher) Dispatch(ctx context.Context, entry domain.Entry) {
	if d.broadcaster != nil {
		d.broadcaster.BroadcastNewEntry(entry)
	}

	job := domain.PushJob{
		EntryID:     entry.ID,
		Category:    entry.Category,
		Message:     entry.Message,
		RequestedAt: time.Now().UTC(),
	}
	if d.queue != nil {
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.log.Error().Err(err).Stringer("entry", entry.ID).Msg("notify: не удалось поставить push-задачу в очередь")
		}
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		d.DeliverPush(bgCtx, job)
	}()
}

// DeliverPush выполняет пакетную рассылку push-уведомлений по задаче.
// Некорректные токены пропускаются, ошибка одной пачки не прерывает
// отправку остальных.
func (d *Dispatcher) DeliverPush(ctx context.Context, job domain.PushJob) {
	tokens, err := d.tokens.ListTokens(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("notify: не удалось получить список токенов")
		return
	}

	msgs := make([]domain.PushMessage, 0, len(tokens))
	for _, t := range tokens {
		if !d.provider.ValidToken(t.Token) {
			metrics.PushTokensSkipped.Inc()
			d.log.Warn().Str("token", t.Token).Msg("notify: некорректный push-токен, пропускаем")
			continue
		}
		msgs = append(msgs, domain.PushMessage{
			To:       t.Token,
			Title:    fmt.Sprintf("New %s!", job.Category),
			Body:     job.Message,
			Data:     map[string]string{"entry_id": job.EntryID.String()},
			Sound:    "default",
			Priority: "high",
		})
	}
	if len(msgs) == 0 {
		return
	}

	for _, chunk := range d.provider.Chunk(msgs) {
		receipts, err := d.provider.Send(ctx, chunk)
		if err != nil {
			metrics.IncPushBatch("error")
			d.log.Error().Err(err).Int("size", len(chunk)).Msg("notify: ошибка отправки пачки push-уведомлений")
			continue
		}
		metrics.IncPushBatch("success")
		d.handleReceipts(ctx, receipts)
	}
}

func (d *Dispatcher) handleReceipts(ctx context.Context, receipts []domain.PushReceipt) {
	for _, r := range receipts {
		switch {
		case r.OK:
		case r.DeviceNotRegistered:
			if err := d.tokens.DeleteToken(ctx, r.Token); err != nil {
				d.log.Error().Err(err).Str("token", r.Token).Msg("notify: не удалось удалить неактивный токен")
				continue
			}
			metrics.PushTokensRemoved.Inc()
			d.log.Info().Str("token", r.Token).Msg("notify: неактивный токен удалён")
		default:
			d.log.Warn().Str("token", r.Token).Str("reason", r.Reason).Msg("notify: провайдер отклонил сообщение")
		}
	}
}
