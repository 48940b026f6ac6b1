// Package streamwatch tails the media table's DynamoDB stream outside
// Lambda and feeds every change to a notification dispatcher.
//
// New shards start at LATEST, so changes made before the watcher started
// are not replayed.
package streamwatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
)

// Error is the class of stream failures.
var Error = errs.Class("streamwatch")

// API is the subset of *dynamodbstreams.Client used by Watcher.
type API interface {
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// ChangeHandler consumes decoded changes. *notify.Dispatcher implements it.
type ChangeHandler interface {
	HandleChange(ctx context.Context, c notify.Change) (int, error)
}

// Watcher polls every open shard of one stream.
type Watcher struct {
	api       API
	streamARN string
	handler   ChangeHandler
	interval  time.Duration
	log       *zap.Logger

	iterators map[string]string
	closed    map[string]bool
}

// New returns a Watcher polling every interval. A non-positive interval
// polls once per second.
func New(api API, streamARN string, handler ChangeHandler, interval time.Duration, log *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		api:       api,
		streamARN: streamARN,
		handler:   handler,
		interval:  interval,
		log:       log,
		iterators: make(map[string]string),
		closed:    make(map[string]bool),
	}
}

// Run polls until ctx is cancelled. Poll failures are logged and retried
// on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if w.streamARN == "" {
		return Error.New("no stream ARN configured")
	}
	w.log.Info("watching stream", zap.String("stream_arn", w.streamARN))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Warn("stream poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll discovers new shards, reads one batch from each and dispatches the
// changes. It returns the number of records read.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	if err := w.discover(ctx); err != nil {
		return 0, err
	}

	read := 0
	for shardID, iterator := range w.iterators {
		out, err := w.api.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: aws.String(iterator),
		})
		if err != nil {
			return read, Error.New("get records from %s: %w", shardID, err)
		}
		for _, record := range out.Records {
			w.dispatch(ctx, record)
		}
		read += len(out.Records)

		if out.NextShardIterator == nil {
			w.log.Debug("shard closed", zap.String("shard", shardID))
			delete(w.iterators, shardID)
			w.closed[shardID] = true
			continue
		}
		w.iterators[shardID] = aws.ToString(out.NextShardIterator)
	}
	return read, nil
}

func (w *Watcher) discover(ctx context.Context) error {
	var start *string
	for {
		out, err := w.api.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(w.streamARN),
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return Error.New("describe stream: %w", err)
		}
		if out.StreamDescription == nil {
			return nil
		}
		for _, shard := range out.StreamDescription.Shards {
			if err := w.track(ctx, shard); err != nil {
				return err
			}
		}
		start = out.StreamDescription.LastEvaluatedShardId
		if start == nil {
			return nil
		}
	}
}

func (w *Watcher) track(ctx context.Context, shard streamtypes.Shard) error {
	shardID := aws.ToString(shard.ShardId)
	if _, ok := w.iterators[shardID]; ok || w.closed[shardID] {
		return nil
	}
	if shard.SequenceNumberRange != nil && shard.SequenceNumberRange.EndingSequenceNumber != nil {
		w.closed[shardID] = true
		return nil
	}
	out, err := w.api.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(w.streamARN),
		ShardId:           aws.String(shardID),
		ShardIteratorType: streamtypes.ShardIteratorTypeLatest,
	})
	if err != nil {
		return Error.New("shard iterator for %s: %w", shardID, err)
	}
	w.iterators[shardID] = aws.ToString(out.ShardIterator)
	w.log.Debug("tracking shard", zap.String("shard", shardID))
	return nil
}

func (w *Watcher) dispatch(ctx context.Context, record streamtypes.Record) {
	var image map[string]types.AttributeValue
	if record.Dynamodb != nil && record.Dynamodb.NewImage != nil {
		converted, err := attributevalue.FromDynamoDBStreamsMap(record.Dynamodb.NewImage)
		if err != nil {
			w.log.Warn("undecodable stream image", zap.String("event_id", aws.ToString(record.EventID)), zap.Error(err))
			return
		}
		image = converted
	}
	change, err := notify.ChangeFromImage(notify.EventName(record.EventName), image)
	if err != nil {
		w.log.Warn("undecodable stream image", zap.String("event_id", aws.ToString(record.EventID)), zap.Error(err))
		return
	}
	if _, err := w.handler.HandleChange(ctx, change); err != nil {
		w.log.Error("dispatch failed", zap.Stringer("key", change.Key), zap.Error(err))
	}
}
