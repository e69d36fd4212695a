package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// MaxBatchSize — лимит Expo на размер одной пачки сообщений.
const MaxBatchSize = 100

var tokenRegex = regexp.MustCompile(`^Expo(nent)?PushToken\[[^\[\]]+\]$`)

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client отправляет push-уведомления через Expo Push API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ domain.PushProvider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	client := &Client{cfg: cfg}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.httpClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://exp.host"
	}
	return client
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

// ValidToken проверяет формат Expo push-токена.
func (c *Client) ValidToken(token string) bool {
	return tokenRegex.MatchString(token)
}

// Chunk разбивает сообщения на пачки, не превышающие MaxBatchSize.
func (c *Client) Chunk(msgs []domain.PushMessage) [][]domain.PushMessage {
	if len(msgs) == 0 {
		return nil
	}
	chunks := make([][]domain.PushMessage, 0, (len(msgs)+MaxBatchSize-1)/MaxBatchSize)
	for start := 0; start < len(msgs); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		chunks = append(chunks, msgs[start:end])
	}
	return chunks
}

type pushMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title,omitempty"`
	Body     string            `json:"body,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Send отправляет одну пачку сообщений и возвращает статусы доставки.
// Пачка не должна превышать MaxBatchSize, за нарезку отвечает Chunk.
func (c *Client) Send(ctx context.Context, msgs []domain.PushMessage) ([]domain.PushReceipt, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	if len(msgs) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds provider limit %d", len(msgs), MaxBatchSize)
	}

	payload := make([]pushMessage, 0, len(msgs))
	for _, m := range msgs {
		payload = append(payload, pushMessage{
			To:       m.To,
			Title:    m.Title,
			Body:     m.Body,
			Data:     m.Data,
			Sound:    m.Sound,
			Priority: m.Priority,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/--/api/v2/push/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("expo", "push_send", "push", start, err)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("push send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) != len(msgs) {
		return nil, fmt.Errorf("ticket count mismatch: sent %d, got %d", len(msgs), len(parsed.Data))
	}

	receipts := make([]domain.PushReceipt, 0, len(msgs))
	for i, ticket := range parsed.Data {
		receipt := domain.PushReceipt{
			Token: msgs[i].To,
			OK:    ticket.Status == "ok",
		}
		if !receipt.OK {
			receipt.Reason = ticket.Message
			receipt.DeviceNotRegistered = ticket.Details.Error == "DeviceNotRegistered"
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
