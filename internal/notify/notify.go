// internal/notify/notify.go
//
// Side-channel notifications to the help desk. A confirmed password
// reset emails the desk through SES; a newly created urgency-1 incident
// pages the on-call channel through SNS. Notifications are best effort
// and never change the reply the user already got.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"itbot/internal/common/config"
	"itbot/internal/common/logger"
)

type sesAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends help desk side-channel messages.
type Notifier struct {
	ses         sesAPI
	sns         snsAPI
	fromAddress string
	deskAddress string
	pageTopic   string
	logger      logger.Logger
}

func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Notifier{
		ses:         ses.NewFromConfig(awsCfg),
		sns:         sns.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		deskAddress: cfg.DeskAddress,
		pageTopic:   cfg.PageTopic,
		logger:      log.WithFields(map[string]interface{}{"component": "notifier"}),
	}, nil
}

// PasswordResetRequested emails the help desk so an agent actions the
// reset within the promised 24 hours.
func (n *Notifier) PasswordResetRequested(ctx context.Context, userID, employeeID string) error {
	subject := "Password reset requested via chat"
	body := fmt.Sprintf(
		"A password reset was requested through the IT support bot.\n\nChat user: %s\nEmployee ID: %s\n\nPlease verify the requester and issue a temporary password.",
		userID, employeeID)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.fromAddress),
		Destination: &sestypes.Destination{ToAddresses: []string{n.deskAddress}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body:    &sestypes.Body{Text: &sestypes.Content{Data: aws.String(body)}},
		},
	})
	if err != nil {
		return fmt.Errorf("password reset notification failed: %w", err)
	}
	n.logger.Info("password reset notification sent", map[string]interface{}{"user": userID})
	return nil
}

// UrgentTicketCreated pages the on-call channel for urgency-1 incidents.
func (n *Notifier) UrgentTicketCreated(ctx context.Context, ticketNumber, shortDescription string) error {
	message := fmt.Sprintf("Urgent incident %s created via chat: %s", ticketNumber, shortDescription)

	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.pageTopic),
		Subject:  aws.String("Urgent incident created"),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("urgent ticket notification failed: %w", err)
	}
	n.logger.Info("urgent ticket notification sent", map[string]interface{}{"ticket": ticketNumber})
	return nil
}
