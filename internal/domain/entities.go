package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category определяет тип обращения.
type Category string

const (
	// CategoryFeedback — обычный отзыв.
	CategoryFeedback Category = "Feedback"
	// CategoryComplaint — жалоба, определённая по ключевым словам.
	CategoryComplaint Category = "Complaint"
)

// Entry представляет сохранённое обращение пользователя.
// После создания запись не изменяется.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceToken описывает зарегистрированное push-устройство администратора.
type DeviceToken struct {
	Token     string
	CreatedAt time.Time
}
