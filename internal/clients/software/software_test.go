// internal/clients/software/software_test.go
package software

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"itbot/internal/common/logger"
	"itbot/internal/dialogue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicketing struct {
	createFn    func(ctx context.Context, shortDescription, description, urgency string) (string, error)
	createCalls [][3]string
}

func (f *fakeTicketing) GetStatus(context.Context, string) (*dialogue.TicketStatus, error) {
	return &dialogue.TicketStatus{Found: false}, nil
}

func (f *fakeTicketing) CreateTicket(ctx context.Context, shortDescription, description, urgency string) (string, error) {
	f.createCalls = append(f.createCalls, [3]string{shortDescription, description, urgency})
	return f.createFn(ctx, shortDescription, description, urgency)
}

func TestSubmit_CreatesTicket(t *testing.T) {
	ticketing := &fakeTicketing{
		createFn: func(context.Context, string, string, string) (string, error) {
			return "REQ0045678", nil
		},
	}
	client := NewClient(ticketing, logger.NewTestLogger(t))

	result, err := client.Submit(context.Background(), "U123", "AutoCAD")
	require.NoError(t, err)
	assert.Equal(t, "REQ0045678", result.TicketID)
	assert.False(t, result.Simulated)

	require.Len(t, ticketing.createCalls, 1)
	assert.Equal(t, "Software Request: AutoCAD", ticketing.createCalls[0][0])
	assert.Contains(t, ticketing.createCalls[0][1], "AutoCAD")
	assert.Contains(t, ticketing.createCalls[0][1], "U123")
	assert.Equal(t, "3", ticketing.createCalls[0][2])
}

func TestSubmit_BackendDownFallsBackToSimulatedID(t *testing.T) {
	ticketing := &fakeTicketing{
		createFn: func(context.Context, string, string, string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	client := NewClient(ticketing, logger.NewTestLogger(t))

	result, err := client.Submit(context.Background(), "U123", "AutoCAD")
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Regexp(t, regexp.MustCompile(`^RITM\d{6}$`), result.TicketID)
}
