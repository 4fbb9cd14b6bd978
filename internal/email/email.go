// Package email delivers transactional mail through Amazon SES, or drops it
// when no sender address is configured.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// ErrNoRecipient is returned when a message has no destination.
var ErrNoRecipient = errors.New("email has no recipient")

// Message is a single outgoing email.
type Message struct {
	Subject  string
	HTMLBody string
	To       string
	From     string
}

// Sender dispatches email messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// sesAPI is the part of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends email using Amazon SES v2.
type SESSender struct {
	client sesAPI
}

// NewSESSender loads the default AWS configuration for region and creates a sender.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send delivers msg through SES.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTMLBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	ev := log.Info().Str("to", msg.To).Str("subject", msg.Subject)
	if result != nil && result.MessageId != nil {
		ev = ev.Str("message_id", *result.MessageId)
	}
	ev.Msg("Email sent")
	return nil
}

// LogSender records that a message would have been sent, without its body,
// instead of sending it. It is used outside production when EMAIL_FROM is not
// configured.
type LogSender struct{}

// Send logs msg and reports success.
func (LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	// The body carries reset secrets and is never logged.
	log.Warn().Str("to", msg.To).Str("subject", msg.Subject).
		Msg("Email delivery disabled, message dropped")
	return nil
}

// FormatFrom renders a display name and address as a From header value.
func FormatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
	<h2>Hello {{.Name}}</h2>
	<p>Please use the url below to reset your password.</p>
	<p>This reset link is valid for only {{.Minutes}} minutes.</p>
	<a href="{{.Link}}" clicktracking=off>{{.Link}}</a>
	<p>Regards...</p>
</body>
</html>
`))

// ResetPasswordBody renders the HTML body of a password reset email.
func ResetPasswordBody(name, link string, validFor time.Duration) (string, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, struct {
		Name    string
		Link    string
		Minutes int
	}{Name: name, Link: link, Minutes: int(validFor.Minutes())})
	if err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return buf.String(), nil
}
