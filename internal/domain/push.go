package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PushJob содержит данные для пакетной рассылки push-уведомлений
// об одном сохранённом обращении.
type PushJob struct {
	EntryID     uuid.UUID `json:"entry_id"`
	Category    Category  `json:"category"`
	Message     string    `json:"message"`
	RequestedAt time.Time `json:"requested_at"`
}

// PushQueue описывает очередь задач на рассылку push-уведомлений.
type PushQueue interface {
	Enqueue(ctx context.Context, job PushJob) error
	// Pop блокирующе читает задачу из очереди.
	Pop(ctx context.Context) (PushJob, error)
}

// PushMessage — одно push-уведомление для конкретного устройства.
type PushMessage struct {
	To       string
	Title    string
	Body     string
	Data     map[string]string
	Sound    string
	Priority string
}

// PushReceipt — статус доставки по одному сообщению пачки.
type PushReceipt struct {
	Token string
	OK    bool
	// DeviceNotRegistered означает, что провайдер считает токен неактивным
	// и его можно удалять из базы.
	DeviceNotRegistered bool
	Reason              string
}

// PushProvider доставляет push-уведомления на зарегистрированные устройства.
type PushProvider interface {
	// ValidToken проверяет формат токена до постановки сообщения в пачку.
	ValidToken(token string) bool
	// Chunk разбивает сообщения на пачки, не превышающие лимит провайдера.
	Chunk(msgs []PushMessage) [][]PushMessage
	// Send отправляет одну пачку и возвращает статусы доставки.
	Send(ctx context.Context, msgs []PushMessage) ([]PushReceipt, error)
}
