package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// Publisher broadcasts a message to a topic.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

// SNSAPI is the subset of *sns.Client used by SNSPublisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes to one SNS topic.
type SNSPublisher struct {
	api      SNSAPI
	topicARN string
}

// NewPublisher returns an SNS publisher, or a noop publisher when topicARN
// is empty.
func NewPublisher(api SNSAPI, topicARN string, log *zap.Logger) Publisher {
	topicARN = strings.TrimSpace(topicARN)
	if topicARN == "" || api == nil {
		return noopPublisher{log: log}
	}
	return &SNSPublisher{api: api, topicARN: topicARN}
}

// Publish implements Publisher.
func (p *SNSPublisher) Publish(ctx context.Context, subject, message string) error {
	_, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return Error.New("publish %q: %w", subject, err)
	}
	return nil
}

type noopPublisher struct {
	log *zap.Logger
}

func (n noopPublisher) Publish(_ context.Context, subject, _ string) error {
	n.log.Debug("topic disabled, dropping message", zap.String("subject", subject))
	return nil
}
