package domain

import (
	"context"

	"github.com/google/uuid"
)

// EntryRepo управляет обращениями.
type EntryRepo interface {
	// CreateEntry сохраняет обращение и возвращает запись с присвоенным id
	// и временем создания.
	CreateEntry(ctx context.Context, message string, category Category) (Entry, error)
	// ListEntries возвращает все обращения, новые первыми.
	ListEntries(ctx context.Context) ([]Entry, error)
	// DeleteEntry удаляет обращение. Удаление несуществующего id не является ошибкой.
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// DeviceTokenRepo управляет push-токенами администраторов.
type DeviceTokenRepo interface {
	// SaveToken регистрирует токен. Повторная регистрация не создаёт дубликатов.
	SaveToken(ctx context.Context, token string) error
	ListTokens(ctx context.Context) ([]DeviceToken, error)
	DeleteToken(ctx context.Context, token string) error
}

// Broadcaster рассылает событие о новом обращении всем подключённым сессиям.
type Broadcaster interface {
	BroadcastNewEntry(entry Entry)
}
