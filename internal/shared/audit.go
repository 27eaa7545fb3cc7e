package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuditEntry is one immutable line in a lesson's audit trail. The trail is a
// structured append-only list; free text is a rendered projection, never the
// storage format.
type AuditEntry struct {
	ID       uuid.UUID
	LessonID int64
	Actor    string
	Action   string
	Detail   string
	At       time.Time
}

// Rendered returns the legacy free-text form of the entry, one line.
func (e AuditEntry) Rendered() string {
	return fmt.Sprintf("[%s] %s: %s %s", e.At.Format("2006-01-02 15:04"), e.Actor, e.Action, e.Detail)
}

// AuditExecutor is the subset of pgx used to append audit entries, satisfied
// by both pgxpool.Pool and pgx.Tx so appends can join a caller's transaction.
type AuditExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AppendAudit persists one audit entry. Entries are never updated or deleted.
func AppendAudit(ctx context.Context, db AuditExecutor, entry AuditEntry) (AuditEntry, error) {
	if db == nil {
		return AuditEntry{}, errors.New("shared: audit executor not initialised")
	}
	if entry.LessonID == 0 || entry.Actor == "" || entry.Action == "" {
		return AuditEntry{}, errors.New("shared: audit entry requires lesson/actor/action")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	err := db.QueryRow(ctx, `
		INSERT INTO lesson_audit_entries (id, lesson_id, actor, action, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING occurred_at`,
		entry.ID, entry.LessonID, entry.Actor, entry.Action, entry.Detail, entry.At,
	).Scan(&entry.At)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("shared: append audit: %w", err)
	}
	return entry, nil
}
