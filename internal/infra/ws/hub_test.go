package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
)

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, sendBuffer)}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	first := newTestClient(hub)
	second := newTestClient(hub)
	hub.Register(first)
	hub.Register(second)

	entry := domain.Entry{ID: uuid.New(), Message: "привет", Category: domain.CategoryFeedback, CreatedAt: time.Now()}
	hub.BroadcastNewEntry(entry)

	for _, c := range []*Client{first, second} {
		select {
		case data := <-c.send:
			var ev envelope
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("некорректный JSON события: %v", err)
			}
			if ev.Type != EventNewFeedback {
				t.Fatalf("ожидали тип %s, получили %s", EventNewFeedback, ev.Type)
			}
			if ev.Payload.ID != entry.ID || ev.Payload.Message != entry.Message {
				t.Fatalf("payload не совпадает: %+v", ev.Payload)
			}
		default:
			t.Fatal("сессия не получила событие")
		}
	}
}

func TestBroadcastSkipsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newTestClient(hub)
	fast := newTestClient(hub)
	hub.Register(slow)
	hub.Register(fast)

	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte("{}")
	}

	hub.BroadcastNewEntry(domain.Entry{ID: uuid.New(), Message: "x", Category: domain.CategoryFeedback})

	select {
	case <-fast.send:
	default:
		t.Fatal("быстрая сессия должна была получить событие")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newTestClient(hub)
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("ожидали 1 сессию, получили %d", hub.ClientCount())
	}
	hub.Unregister(c)
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Fatalf("ожидали 0 сессий, получили %d", hub.ClientCount())
	}

	// Рассылка после отключения не должна паниковать.
	hub.BroadcastNewEntry(domain.Entry{ID: uuid.New(), Message: "y", Category: domain.CategoryComplaint})
}
