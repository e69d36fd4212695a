package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/usecase/classify"
)

type stubEntryRepo struct {
	created   []domain.Entry
	createErr error
	deleted   []uuid.UUID
}

func (s *stubEntryRepo) CreateEntry(_ context.Context, message string, category domain.Category) (domain.Entry, error) {
	if s.createErr != nil {
		return domain.Entry{}, s.createErr
	}
	entry := domain.Entry{ID: uuid.New(), Message: message, Category: category, CreatedAt: time.Now().UTC()}
	s.created = append(s.created, entry)
	return entry, nil
}

func (s *stubEntryRepo) ListEntries(context.Context) ([]domain.Entry, error) {
	out := make([]domain.Entry, len(s.created))
	copy(out, s.created)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *stubEntryRepo) DeleteEntry(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubTokenRepo struct {
	saved []string
}

func (s *stubTokenRepo) SaveToken(_ context.Context, token string) error {
	for _, existing := range s.saved {
		if existing == token {
			return nil
		}
	}
	s.saved = append(s.saved, token)
	return nil
}
func (s *stubTokenRepo) ListTokens(context.Context) ([]domain.DeviceToken, error) { return nil, nil }
func (s *stubTokenRepo) DeleteToken(context.Context, string) error                { return nil }

type recordingDispatcher struct {
	dispatched []domain.Entry
}

func (r *recordingDispatcher) Dispatch(_ context.Context, entry domain.Entry) {
	r.dispatched = append(r.dispatched, entry)
}

func newService(entries *stubEntryRepo, tokens *stubTokenRepo, d Dispatcher) *Service {
	return NewService(entries, tokens, classify.New(nil), d)
}

func TestSubmitClassifiesAndDispatches(t *testing.T) {
	repo := &stubEntryRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newService(repo, &stubTokenRepo{}, dispatcher)

	entry, err := svc.Submit(context.Background(), "  App crashes on login, please fix  ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if entry.Category != domain.CategoryComplaint {
		t.Fatalf("ожидали Complaint, получили %s", entry.Category)
	}
	if entry.Message != "App crashes on login, please fix" {
		t.Fatalf("сообщение должно сохраняться без крайних пробелов: %q", entry.Message)
	}
	if len(repo.created) != 1 {
		t.Fatalf("ожидали одну запись в хранилище, получили %d", len(repo.created))
	}
	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0].ID != entry.ID {
		t.Fatal("диспетчер должен получить сохранённую запись")
	}
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	repo := &stubEntryRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newService(repo, &stubTokenRepo{}, dispatcher)

	for _, message := range []string{"", "   ", "\n\t "} {
		if _, err := svc.Submit(context.Background(), message); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("ожидали ErrEmptyMessage для %q, получили %v", message, err)
		}
	}
	if len(repo.created) != 0 {
		t.Fatal("невалидное сообщение не должно сохраняться")
	}
	if len(dispatcher.dispatched) != 0 {
		t.Fatal("невалидное сообщение не должно порождать уведомлений")
	}
}

func TestSubmitPersistenceErrorSkipsDispatch(t *testing.T) {
	repo := &stubEntryRepo{createErr: errors.New("db unavailable")}
	dispatcher := &recordingDispatcher{}
	svc := newService(repo, &stubTokenRepo{}, dispatcher)

	if _, err := svc.Submit(context.Background(), "hello"); err == nil {
		t.Fatal("ожидали ошибку сохранения")
	}
	if len(dispatcher.dispatched) != 0 {
		t.Fatal("уведомления не должны отправляться для несохранённой записи")
	}
}

func TestSubmitFeedbackCategory(t *testing.T) {
	repo := &stubEntryRepo{}
	svc := newService(repo, &stubTokenRepo{}, nil)

	entry, err := svc.Submit(context.Background(), "Great app, love the new update")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if entry.Category != domain.CategoryFeedback {
		t.Fatalf("ожидали Feedback, получили %s", entry.Category)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	repo := &stubEntryRepo{}
	svc := newService(repo, &stubTokenRepo{}, nil)

	first, _ := svc.Submit(context.Background(), "первое сообщение")
	second, _ := svc.Submit(context.Background(), "второе сообщение")

	entries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ожидали 2 записи, получили %d", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatal("записи должны возвращаться новые первыми")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo := &stubEntryRepo{}
	svc := newService(repo, &stubTokenRepo{}, nil)

	id := uuid.New()
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("повторное удаление не должно быть ошибкой: %v", err)
	}
}

func TestRegisterToken(t *testing.T) {
	tokens := &stubTokenRepo{}
	svc := newService(&stubEntryRepo{}, tokens, nil)

	if err := svc.RegisterToken(context.Background(), "  "); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("ожидали ErrEmptyToken, получили %v", err)
	}
	if err := svc.RegisterToken(context.Background(), "ExponentPushToken[abc]"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := svc.RegisterToken(context.Background(), "ExponentPushToken[abc]"); err != nil {
		t.Fatalf("повторная регистрация должна быть no-op: %v", err)
	}
	if len(tokens.saved) != 1 {
		t.Fatalf("ожидали один сохранённый токен, получили %d", len(tokens.saved))
	}
}
