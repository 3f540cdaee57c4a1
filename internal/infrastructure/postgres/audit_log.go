package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusconnect/campus-connect/internal/application"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLog writes authentication events to the audit_logs table.
// Entities themselves stay in memory; only this trail is durable.
type AuditLog struct {
	db execer
}

// NewAuditLog accepts a *pgxpool.Pool or anything else with pgx's Exec signature.
func NewAuditLog(db execer) *AuditLog {
	return &AuditLog{db: db}
}

const insertAudit = `INSERT INTO audit_logs (user_id, email, action, ip, user_agent, created_at)
VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6)`

func (a *AuditLog) Record(ctx context.Context, e application.AuditEntry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	c, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := a.db.Exec(c, insertAudit, e.UserID, e.Email, e.Action, e.IP, e.UserAgent, at)
	return err
}

var _ application.AuditRecorder = (*AuditLog)(nil)
