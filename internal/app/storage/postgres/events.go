package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
)

// EventJournal persists emitted notifications in PostgreSQL.
type EventJournal struct {
	db *sqlx.DB
}

var _ storage.EventStore = (*EventJournal)(nil)

// NewEventJournal wraps the shared database handle for event persistence.
func NewEventJournal(db *sql.DB) *EventJournal {
	return &EventJournal{db: sqlx.NewDb(db, "postgres")}
}

type eventRow struct {
	ID        string       `db:"id"`
	Type      string       `db:"type"`
	Asset     string       `db:"asset"`
	Amount    string       `db:"amount"`
	Maturity  sql.NullTime `db:"maturity"`
	Recipient string       `db:"recipient"`
	TxHash    string       `db:"tx_hash"`
	CreatedAt time.Time    `db:"created_at"`
}

func (r eventRow) toDomain() timelock.Event {
	ev := timelock.Event{
		ID:        r.ID,
		Type:      timelock.EventType(r.Type),
		Asset:     r.Asset,
		Amount:    r.Amount,
		Recipient: r.Recipient,
		TxHash:    r.TxHash,
		CreatedAt: r.CreatedAt,
	}
	if r.Maturity.Valid {
		t := r.Maturity.Time
		ev.Maturity = &t
	}
	return ev
}

func (j *EventJournal) AppendEvent(ctx context.Context, ev timelock.Event) (timelock.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	row := eventRow{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Asset:     ev.Asset,
		Amount:    ev.Amount,
		Recipient: ev.Recipient,
		TxHash:    ev.TxHash,
		CreatedAt: ev.CreatedAt,
	}
	if ev.Maturity != nil {
		row.Maturity = sql.NullTime{Time: *ev.Maturity, Valid: true}
	}

	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO vault_events (id, type, asset, amount, maturity, recipient, tx_hash, created_at)
		VALUES (:id, :type, :asset, :amount, :maturity, :recipient, :tx_hash, :created_at)
	`, row)
	if err != nil {
		return timelock.Event{}, err
	}
	return ev, nil
}

func (j *EventJournal) ListEvents(ctx context.Context, limit int) ([]timelock.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []eventRow
	err := j.db.SelectContext(ctx, &rows, `
		SELECT id, type, asset, amount, maturity, recipient, tx_hash, created_at
		FROM vault_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}

	result := make([]timelock.Event, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}
