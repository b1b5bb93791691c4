package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// ApplicationHistoryEntry is one persisted application outcome.
type ApplicationHistoryEntry struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	JobID       string    `json:"job_id"`
	Company     string    `json:"company"`
	JobTitle    string    `json:"job_title"`
	HREmail     string    `json:"hr_email"`
	EmailSource string    `json:"email_source"`
	Sent        bool      `json:"sent"`
	SendError   string    `json:"send_error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// SaveApplicationHistory writes one row per attempted send from a completed
// run. A nil receiver is a no-op so the caller can run without a database.
func (db *DB) SaveApplicationHistory(ctx context.Context, ownerID uuid.UUID, sess *types.PipelineSession) error {
	if db == nil || db.pool == nil {
		return nil
	}

	drafts := make(map[string]types.EmailDraft, len(sess.EmailDrafts))
	for _, d := range sess.EmailDrafts {
		drafts[d.JobID] = d
	}

	for _, result := range sess.SendResults {
		draft := drafts[result.JobID]
		_, err := db.pool.Exec(ctx,
			`INSERT INTO application_history
			   (owner_id, session_id, job_id, company, job_title, hr_email, email_source, sent, send_error, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
			ownerID, sess.SessionID, result.JobID, result.Company, draft.JobTitle,
			result.HREmail, string(draft.EmailSource), result.Sent, result.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to save application history: %w", err)
		}
	}
	return nil
}

// ListApplicationHistory returns an owner's persisted applications, newest
// first. A nil receiver returns an empty list.
func (db *DB) ListApplicationHistory(ctx context.Context, ownerID uuid.UUID, limit int) ([]ApplicationHistoryEntry, error) {
	if db == nil || db.pool == nil {
		return []ApplicationHistoryEntry{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, job_id, company, job_title, hr_email, email_source, sent, COALESCE(send_error, ''), completed_at
		 FROM application_history
		 WHERE owner_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list application history: %w", err)
	}
	defer rows.Close()

	entries := []ApplicationHistoryEntry{}
	for rows.Next() {
		var e ApplicationHistoryEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.JobID, &e.Company, &e.JobTitle,
			&e.HREmail, &e.EmailSource, &e.Sent, &e.SendError, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}
