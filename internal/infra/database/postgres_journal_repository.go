// internal/infra/database/postgres_journal_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/notification"

	"github.com/lib/pq"
)

const journalSchema = `CREATE TABLE IF NOT EXISTS notification_journal (
    id         BIGSERIAL PRIMARY KEY,
    cycle_id   UUID        NOT NULL,
    kind       VARCHAR(16) NOT NULL,
    chat_id    BIGINT      NOT NULL,
    message    TEXT        NOT NULL,
    delivered  BOOLEAN     NOT NULL,
    error_text TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresJournalRepository struct {
	db *sql.DB
}

func NewPostgresJournalRepository(db *sql.DB) *PostgresJournalRepository {
	return &PostgresJournalRepository{db: db}
}

// EnsureSchema creates the journal table if it does not exist yet.
func (r *PostgresJournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("error creating notification journal table: %w", err)
	}
	return nil
}

func (r *PostgresJournalRepository) Record(ctx context.Context, e *notification.Entry) error {
	query := `INSERT INTO notification_journal (cycle_id, kind, chat_id, message, delivered, error_text)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, e.CycleID, e.Kind, e.ChatID, e.Message, e.Delivered, e.ErrorText).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "undefined_table" {
			return fmt.Errorf("notification journal table is missing, run EnsureSchema: %w", err)
		}
		return fmt.Errorf("error recording notification: %w", err)
	}
	return nil
}
