// Package dynamostore implements store.Backend on DynamoDB.
package dynamostore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Tables names the three tables.
type Tables struct {
	Media         string
	Idempotency   string
	Subscriptions string
}

// Store is a store.Backend over DynamoDB.
type Store struct {
	api    API
	tables Tables
	log    *zap.Logger
}

var _ store.Backend = (*Store)(nil)

// New returns a Store using api for every call.
func New(api API, tables Tables, log *zap.Logger) *Store {
	return &Store{api: api, tables: tables, log: log}
}

// Scan implements store.Records. Items that cannot be decoded are logged
// and skipped.
func (s *Store) Scan(ctx context.Context) ([]model.MediaRecord, error) {
	var records []model.MediaRecord
	err := s.scan(ctx, s.tables.Media, func(item map[string]types.AttributeValue) {
		var rec model.MediaRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			s.log.Warn("skipping undecodable media item", zap.Error(err))
			return
		}
		if rec.Repair() {
			s.log.Debug("repaired misaligned counts", zap.Stringer("key", rec.Key()))
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("scanned media table", zap.Int("items", len(records)))
	return records, nil
}

// Get implements store.Records.
func (s *Store) Get(ctx context.Context, key model.RecordKey) (model.MediaRecord, error) {
	item, err := s.getItem(ctx, s.tables.Media, key)
	if err != nil {
		return model.MediaRecord{}, err
	}
	var rec model.MediaRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return model.MediaRecord{}, store.Error.Wrap(err)
	}
	rec.Repair()
	return rec, nil
}

// Put implements store.Records.
func (s *Store) Put(ctx context.Context, rec model.MediaRecord) error {
	return s.putItem(ctx, s.tables.Media, rec)
}

// UpdateTags implements store.Records. The write is conditional on the
// item existing so a stale key never creates a partial record.
func (s *Store) UpdateTags(ctx context.Context, key model.RecordKey, tags []string, counts []int) error {
	avKey, err := marshalKey(key)
	if err != nil {
		return err
	}
	update := expression.
		Set(expression.Name("tags"), expression.Value(model.TagList(tags))).
		Set(expression.Name("counts"), expression.Value(model.CountList(counts)))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return store.Error.Wrap(err)
	}

	_, err = s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Media),
		Key:                       avKey,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Error.New("update %s: %w", key, err)
	}
	return nil
}

// Delete implements store.Records.
func (s *Store) Delete(ctx context.Context, key model.RecordKey) error {
	avKey, err := marshalKey(key)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Media),
		Key:       avKey,
	})
	if err != nil {
		return store.Error.New("delete %s: %w", key, err)
	}
	return nil
}

// GetMarker implements store.Markers.
func (s *Store) GetMarker(ctx context.Context, key model.RecordKey) (model.IdempotencyMarker, error) {
	item, err := s.getItem(ctx, s.tables.Idempotency, key)
	if err != nil {
		return model.IdempotencyMarker{}, err
	}
	var marker model.IdempotencyMarker
	if err := attributevalue.UnmarshalMap(item, &marker); err != nil {
		return model.IdempotencyMarker{}, store.Error.Wrap(err)
	}
	return marker, nil
}

// PutMarker implements store.Markers.
func (s *Store) PutMarker(ctx context.Context, marker model.IdempotencyMarker) error {
	return s.putItem(ctx, s.tables.Idempotency, marker)
}

// PutSubscription implements store.Subscriptions.
func (s *Store) PutSubscription(ctx context.Context, sub model.TagSubscription) error {
	return s.putItem(ctx, s.tables.Subscriptions, sub)
}

// ScanSubscriptions implements store.Subscriptions.
func (s *Store) ScanSubscriptions(ctx context.Context) ([]model.TagSubscription, error) {
	var subs []model.TagSubscription
	err := s.scan(ctx, s.tables.Subscriptions, func(item map[string]types.AttributeValue) {
		var sub model.TagSubscription
		if err := attributevalue.UnmarshalMap(item, &sub); err != nil {
			s.log.Warn("skipping undecodable subscription", zap.Error(err))
			return
		}
		subs = append(subs, sub)
	})
	return subs, err
}

func (s *Store) scan(ctx context.Context, table string, visit func(map[string]types.AttributeValue)) error {
	paginator := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return store.Error.New("scan %s: %w", table, err)
		}
		for _, item := range page.Items {
			visit(item)
		}
	}
	return nil
}

func (s *Store) getItem(ctx context.Context, table string, key model.RecordKey) (map[string]types.AttributeValue, error) {
	avKey, err := marshalKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            avKey,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, store.Error.New("get %s from %s: %w", key, table, err)
	}
	if out.Item == nil {
		return nil, store.ErrNotFound
	}
	return out.Item, nil
}

func (s *Store) putItem(ctx context.Context, table string, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return store.Error.Wrap(err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return store.Error.New("put into %s: %w", table, err)
	}
	return nil
}

func marshalKey(key model.RecordKey) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, store.Error.Wrap(err)
	}
	return av, nil
}
