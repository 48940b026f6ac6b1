package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the class of delivery failures.
var Error = errs.Class("notify")

// Email is one plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers Email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SESAPI is the subset of *ses.Client used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends through Amazon SES from a verified sender address.
type SESMailer struct {
	api    SESAPI
	sender string
}

// NewMailer returns an SES mailer, or a noop mailer that logs at debug
// level when sender is empty.
func NewMailer(api SESAPI, sender string, log *zap.Logger) Mailer {
	sender = strings.TrimSpace(sender)
	if sender == "" || api == nil {
		return noopMailer{log: log}
	}
	return &SESMailer{api: api, sender: sender}
}

// Send implements Mailer.
func (m *SESMailer) Send(ctx context.Context, msg Email) error {
	_, err := m.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.sender),
		Destination: &sestypes.Destination{ToAddresses: []string{msg.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return Error.New("send to %s: %w", msg.To, err)
	}
	return nil
}

type noopMailer struct {
	log *zap.Logger
}

func (n noopMailer) Send(_ context.Context, msg Email) error {
	n.log.Debug("mail disabled, dropping message",
		zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
