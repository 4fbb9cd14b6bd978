package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	s := &SESSender{client: api}

	err := s.Send(context.Background(), Message{
		Subject:  "Password Reset Request",
		HTMLBody: "<p>hi</p>",
		To:       "ann@x.com",
		From:     "Accounts <no-reply@x.com>",
	})
	require.NoError(t, err)

	require.NotNil(t, api.input)
	assert.Equal(t, "Accounts <no-reply@x.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"ann@x.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Password Reset Request", aws.ToString(api.input.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
}

func TestSESSender_SendError(t *testing.T) {
	s := &SESSender{client: &fakeSES{err: errors.New("throttled")}}

	err := s.Send(context.Background(), Message{To: "ann@x.com", From: "x@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSenders_RequireRecipient(t *testing.T) {
	assert.ErrorIs(t, (&SESSender{client: &fakeSES{}}).Send(context.Background(), Message{}), ErrNoRecipient)
	assert.ErrorIs(t, LogSender{}.Send(context.Background(), Message{}), ErrNoRecipient)
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "ann@x.com"}))
}

func TestLogSender_DoesNotLogBody(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	body, err := ResetPasswordBody("Ann", "http://localhost:3000/resetpassword/SECRET123acc", 30*time.Minute)
	require.NoError(t, err)

	require.NoError(t, LogSender{}.Send(context.Background(), Message{
		Subject: "Password Reset Request", HTMLBody: body, To: "ann@x.com",
	}))

	out := buf.String()
	assert.Contains(t, out, "ann@x.com")
	assert.Contains(t, out, "Password Reset Request")
	assert.NotContains(t, out, "SECRET123acc")
	assert.NotContains(t, out, "resetpassword")
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "a@x.com", FormatFrom("", "a@x.com"))
	assert.Equal(t, "Accounts <a@x.com>", FormatFrom("Accounts", "a@x.com"))
}

func TestResetPasswordBody(t *testing.T) {
	body, err := ResetPasswordBody("<Ann>", "http://localhost:3000/resetpassword/abc", 30*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, body, "Hello &lt;Ann&gt;")
	assert.Contains(t, body, `href="http://localhost:3000/resetpassword/abc"`)
	assert.Contains(t, body, "valid for only 30 minutes")
}
