// internal/audit/audit_test.go
package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"itbot/internal/common/logger"
	"itbot/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO conversation_turns").
		WithArgs("turn-1", "U123", "C456", "my laptop is broken",
			"create_ticket", "confirm_create_ticket", "I'll help you create a ticket for: 'Hardware issue'. Would you like to proceed?",
			[]byte(`{"short_description":"Hardware issue"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	l := NewLogger(db, logger.NewTestLogger(t))
	err = l.Append(context.Background(), TurnRecord{
		TurnID:    "turn-1",
		UserID:    "U123",
		ChannelID: "C456",
		Text:      "my laptop is broken",
		Intent:    models.IntentCreateTicket,
		Action:    models.ActionConfirmCreateTicket,
		Response:  "I'll help you create a ticket for: 'Hardware issue'. Would you like to proceed?",
		Details:   map[string]interface{}{"short_description": "Hardware issue"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_NilDetailsStoredAsEmptyObject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO conversation_turns").
		WithArgs("turn-2", "U123", "C456", "hello",
			"greeting", "greeting", "Hello!", []byte("{}"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	l := NewLogger(db, logger.NewTestLogger(t))
	require.NoError(t, l.Append(context.Background(), TurnRecord{
		TurnID:    "turn-2",
		UserID:    "U123",
		ChannelID: "C456",
		Text:      "hello",
		Intent:    models.IntentGreeting,
		Action:    models.ActionGreeting,
		Response:  "Hello!",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_WriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO conversation_turns").
		WillReturnError(errors.New("connection reset"))

	l := NewLogger(db, logger.NewTestLogger(t))
	assert.Error(t, l.Append(context.Background(), TurnRecord{TurnID: "turn-3"}))
}

func TestHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"turn_id", "user_id", "channel_id", "text", "intent", "action", "response", "details", "created_at",
	}).
		AddRow("turn-1", "U123", "C456", "hello", "greeting", "greeting", "Hello!", []byte("{}"), now).
		AddRow("turn-2", "U123", "C456", "INC0010001", "check_ticket_status", "report_status", "Ticket INC0010001: ...",
			[]byte(`{"ticket_number":"INC0010001"}`), now.Add(time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM conversation_turns").
		WithArgs("U123", "C456").
		WillReturnRows(rows)

	l := NewLogger(db, logger.NewTestLogger(t))
	records, err := l.History(context.Background(), "U123", "C456")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.IntentGreeting, records[0].Intent)
	assert.Equal(t, models.ActionReportStatus, records[1].Action)
	assert.Equal(t, "INC0010001", records[1].Details["ticket_number"])
}
