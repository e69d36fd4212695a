package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// EventNewFeedback — единственный тип события live-канала.
const EventNewFeedback = "newFeedback"

type envelope struct {
	Type    string       `json:"type"`
	Payload domain.Entry `json:"payload"`
}

// Hub хранит реестр подключённых админских сессий и рассылает им события.
// Реестр изменяется только при подключении/отключении, рассылка его
// только читает.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

var _ domain.Broadcaster = (*Hub)(nil)

// NewHub создаёт пустой реестр сессий.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		log:     logger,
		clients: make(map[*Client]struct{}),
	}
}

// Register добавляет сессию в реестр.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnectedClients.Inc()
	h.log.Debug().Msg("ws: админ подключился")
}

// Unregister удаляет сессию и закрывает её канал отправки.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		metrics.WSConnectedClients.Dec()
		h.log.Debug().Msg("ws: админ отключился")
	}
}

// ClientCount возвращает количество подключённых сессий.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastNewEntry отправляет событие newFeedback всем подключённым
// сессиям. Доставка fire-and-forget: медленная сессия пропускает событие.
func (h *Hub) BroadcastNewEntry(entry domain.Entry) {
	data, err := json.Marshal(envelope{Type: EventNewFeedback, Payload: entry})
	if err != nil {
		h.log.Error().Err(err).Msg("ws: не удалось сериализовать событие")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			metrics.WSBroadcastDropped.Inc()
			h.log.Warn().Msg("ws: медленная сессия, событие пропущено")
		}
	}
}
