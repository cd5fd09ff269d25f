package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/labstack/gommon/log"
)

// ServiceInterface sends one email with a plain text and an optional HTML body.
type ServiceInterface interface {
	SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error
}

// SESAPI is the subset of the SES v2 client the sender needs.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESV2Sender implements ServiceInterface using AWS SES v2.
type SESV2Sender struct {
	client    SESAPI
	fromEmail string
}

// NewSESV2Sender builds a sender from the default AWS credential chain.
func NewSESV2Sender(ctx context.Context, region, fromEmail string) (*SESV2Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("email.NewSESV2Sender: %w", err)
	}
	return &SESV2Sender{client: sesv2.NewFromConfig(cfg), fromEmail: fromEmail}, nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *SESV2Sender) SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error {
	body := &types.Body{Text: utf8(plainTextContent)}
	if htmlContent != "" {
		body.Html = utf8(htmlContent)
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8(subject), Body: body},
		},
	})
	if err != nil {
		return fmt.Errorf("email.SendEmail: %w", err)
	}
	log.Debugf("email %q sent to %s (message id %s)", subject, to, aws.ToString(out.MessageId))
	return nil
}

// LogSender logs emails instead of sending them. It stands in when no SES
// sender address is configured.
type LogSender struct{}

func (LogSender) SendEmail(_ context.Context, to, subject, plainTextContent, _ string) error {
	log.Infof("email (not sent) to=%s subject=%q body=%q", to, subject, plainTextContent)
	return nil
}
