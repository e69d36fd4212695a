package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/usecase/classify"
)

// ErrEmptyMessage возвращается для пустого или пробельного сообщения.
var ErrEmptyMessage = errors.New("сообщение не может быть пустым")

// ErrEmptyToken возвращается при регистрации пустого push-токена.
var ErrEmptyToken = errors.New("токен не может быть пустым")

// Dispatcher рассылает уведомления о новом обращении.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry domain.Entry)
}

// Service реализует приём обращений: валидация, классификация, сохранение
// и передача диспетчеру уведомлений.
type Service struct {
	entries    domain.EntryRepo
	tokens     domain.DeviceTokenRepo
	classifier *classify.Classifier
	dispatcher Dispatcher
}

// NewService создаёт сервис приёма. dispatcher может быть nil.
func NewService(entries domain.EntryRepo, tokens domain.DeviceTokenRepo, classifier *classify.Classifier, dispatcher Dispatcher) *Service {
	return &Service{entries: entries, tokens: tokens, classifier: classifier, dispatcher: dispatcher}
}

// Submit принимает сообщение: валидирует, классифицирует, сохраняет и
// запускает рассылку уведомлений. Уведомления рассылаются только после
// успешного сохранения, их ошибки на результат не влияют.
func (s *Service) Submit(ctx context.Context, message string) (domain.Entry, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return domain.Entry{}, ErrEmptyMessage
	}

	category := s.classifier.Classify(trimmed)

	entry, err := s.entries.CreateEntry(ctx, trimmed, category)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("сохранение обращения: %w", err)
	}
	metrics.IncIntake(string(entry.Category))

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, entry)
	}
	return entry, nil
}

// List возвращает все обращения, новые первыми.
func (s *Service) List(ctx context.Context) ([]domain.Entry, error) {
	return s.entries.ListEntries(ctx)
}

// Delete удаляет обращение по id. Операция идемпотентна и не порождает
// уведомлений.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.entries.DeleteEntry(ctx, id)
}

// RegisterToken идемпотентно регистрирует push-токен администратора.
func (s *Service) RegisterToken(ctx context.Context, token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrEmptyToken
	}
	return s.tokens.SaveToken(ctx, trimmed)
}
