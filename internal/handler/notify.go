package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
)

// Notifier handles DynamoDB stream batches from the media table.
type Notifier struct {
	dispatcher *notify.Dispatcher
	log        *zap.Logger
}

// NewNotifier returns a Notifier.
func NewNotifier(dispatcher *notify.Dispatcher, log *zap.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, log: log}
}

// Handle dispatches every change in evt. Failures are logged and never
// returned so the stream does not redeliver the batch.
func (n *Notifier) Handle(ctx context.Context, evt events.DynamoDBEvent) error {
	changes, err := notify.ChangesFromLambdaEvent(evt)
	if err != nil {
		n.log.Error("undecodable stream records", zap.Error(err))
	}
	total := 0
	for _, change := range changes {
		sent, err := n.dispatcher.HandleChange(ctx, change)
		if err != nil {
			n.log.Error("dispatch failed", zap.Stringer("key", change.Key), zap.Error(err))
			continue
		}
		total += sent
	}
	n.log.Info("stream batch handled",
		zap.Int("records", len(evt.Records)),
		zap.Int("emails", total))
	return nil
}
