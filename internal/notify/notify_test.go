// internal/notify/notify_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itbot/internal/common/logger"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, input *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = input
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = input
	return &sns.PublishOutput{}, f.err
}

func newTestNotifier(t *testing.T, sesClient sesAPI, snsClient snsAPI) *Notifier {
	return &Notifier{
		ses:         sesClient,
		sns:         snsClient,
		fromAddress: "bot@example.com",
		deskAddress: "helpdesk@example.com",
		pageTopic:   "arn:aws:sns:us-east-1:000000000000:oncall",
		logger:      logger.NewTestLogger(t),
	}
}

func TestPasswordResetRequested(t *testing.T) {
	sesClient := &fakeSES{}
	n := newTestNotifier(t, sesClient, &fakeSNS{})

	require.NoError(t, n.PasswordResetRequested(context.Background(), "U123", "E456"))

	require.NotNil(t, sesClient.input)
	assert.Equal(t, "bot@example.com", *sesClient.input.Source)
	assert.Equal(t, []string{"helpdesk@example.com"}, sesClient.input.Destination.ToAddresses)
	assert.Contains(t, *sesClient.input.Message.Body.Text.Data, "U123")
	assert.Contains(t, *sesClient.input.Message.Body.Text.Data, "E456")
}

func TestPasswordResetRequested_SendFailure(t *testing.T) {
	n := newTestNotifier(t, &fakeSES{err: errors.New("throttled")}, &fakeSNS{})
	assert.Error(t, n.PasswordResetRequested(context.Background(), "U123", "E456"))
}

func TestUrgentTicketCreated(t *testing.T) {
	snsClient := &fakeSNS{}
	n := newTestNotifier(t, &fakeSES{}, snsClient)

	require.NoError(t, n.UrgentTicketCreated(context.Background(), "INC0012345", "Hardware issue at Building A"))

	require.NotNil(t, snsClient.input)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:oncall", *snsClient.input.TopicArn)
	assert.Contains(t, *snsClient.input.Message, "INC0012345")
	assert.Contains(t, *snsClient.input.Message, "Hardware issue at Building A")
}

func TestUrgentTicketCreated_PublishFailure(t *testing.T) {
	n := newTestNotifier(t, &fakeSES{}, &fakeSNS{err: errors.New("topic gone")})
	assert.Error(t, n.UrgentTicketCreated(context.Background(), "INC0012345", "Network issue"))
}
