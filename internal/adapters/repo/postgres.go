package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.EntryRepo = (*Postgres)(nil)
var _ domain.DeviceTokenRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id uuid PRIMARY KEY,
    message text NOT NULL,
    category text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS entries_created_at_idx ON entries (created_at DESC);
CREATE TABLE IF NOT EXISTS device_tokens (
    token text PRIMARY KEY,
    created_at timestamptz NOT NULL DEFAULT now()
);
`

// EnsureSchema создаёт таблицы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schema)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "entries", start, err)
	return err
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// CreateEntry сохраняет обращение. id и created_at присваивает БД-слой.
func (p *Postgres) CreateEntry(ctx context.Context, message string, category domain.Category) (domain.Entry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	entry := domain.Entry{
		ID:       uuid.New(),
		Message:  message,
		Category: category,
	}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO entries (id, message, category)
VALUES ($1, $2, $3)
RETURNING created_at
`, entry.ID, entry.Message, string(entry.Category)).Scan(&entry.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "entries_insert", "entries", start, err)
	if err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

// ListEntries возвращает все обращения, новые первыми.
func (p *Postgres) ListEntries(ctx context.Context) ([]domain.Entry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, message, category, created_at
FROM entries
ORDER BY created_at DESC, id
`)
	metrics.ObserveNetworkRequest("postgres", "entries_list", "entries", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var (
			entry    domain.Entry
			category string
		)
		if err := rows.Scan(&entry.ID, &entry.Message, &category, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Category = domain.Category(category)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteEntry удаляет обращение. Отсутствующий id не считается ошибкой.
func (p *Postgres) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "entries_delete", "entries", start, err)
	return err
}

// SaveToken регистрирует push-токен. Повторная регистрация — no-op.
func (p *Postgres) SaveToken(ctx context.Context, token string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO device_tokens (token)
VALUES ($1)
ON CONFLICT (token) DO NOTHING
`, token)
	metrics.ObserveNetworkRequest("postgres", "tokens_upsert", "device_tokens", start, err)
	return err
}

// ListTokens возвращает все зарегистрированные токены.
func (p *Postgres) ListTokens(ctx context.Context) ([]domain.DeviceToken, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT token, created_at FROM device_tokens ORDER BY created_at`)
	metrics.ObserveNetworkRequest("postgres", "tokens_list", "device_tokens", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.DeviceToken
	for rows.Next() {
		var token domain.DeviceToken
		if err := rows.Scan(&token.Token, &token.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DeleteToken удаляет токен, например после DeviceNotRegistered от провайдера.
func (p *Postgres) DeleteToken(ctx context.Context, token string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM device_tokens WHERE token = $1`, token)
	metrics.ObserveNetworkRequest("postgres", "tokens_delete", "device_tokens", start, err)
	return err
}
