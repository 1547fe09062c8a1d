// internal/audit/audit.go
//
// Conversation audit trail. Every processed turn is appended to
// Postgres so the help desk can reconstruct what the bot told a user,
// and so simulated software requests can be actioned manually.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"itbot/internal/common/logger"
	"itbot/internal/models"
)

// TurnRecord is one processed turn as written to the audit log.
type TurnRecord struct {
	TurnID    string
	UserID    string
	ChannelID string
	Text      string
	Intent    models.Intent
	Action    models.Action
	Response  string
	Details   map[string]interface{}
	CreatedAt time.Time
}

type Logger struct {
	db     *sql.DB
	logger logger.Logger
}

func NewLogger(db *sql.DB, log logger.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit-log"}),
	}
}

const insertTurnSQL = `
	INSERT INTO conversation_turns
		(turn_id, user_id, channel_id, text, intent, action, response, details, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Append writes one turn record. Failures are returned to the caller,
// which logs them without affecting the user-visible reply.
func (l *Logger) Append(ctx context.Context, rec TurnRecord) error {
	details := []byte("{}")
	if rec.Details != nil {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal turn details: %w", err)
		}
		details = raw
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, insertTurnSQL,
		rec.TurnID, rec.UserID, rec.ChannelID, rec.Text,
		string(rec.Intent), string(rec.Action), rec.Response, details, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append turn record: %w", err)
	}
	return nil
}

const selectTurnsSQL = `
	SELECT turn_id, user_id, channel_id, text, intent, action, response, details, created_at
	FROM conversation_turns
	WHERE user_id = $1 AND channel_id = $2
	ORDER BY created_at ASC`

// History returns the recorded turns of one conversation, oldest first.
func (l *Logger) History(ctx context.Context, userID, channelID string) ([]TurnRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectTurnsSQL, userID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turn records: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var intent, action string
		var details []byte
		if err := rows.Scan(&rec.TurnID, &rec.UserID, &rec.ChannelID, &rec.Text,
			&intent, &action, &rec.Response, &details, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn record: %w", err)
		}
		rec.Intent = models.Intent(intent)
		rec.Action = models.Action(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &rec.Details); err != nil {
				l.logger.WithError(err).Warn("skipping unparseable turn details", map[string]interface{}{
					"turnId": rec.TurnID,
				})
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn records: %w", err)
	}
	return records, nil
}
