package notify

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/zeebo/errs"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// EventName is the kind of table change.
type EventName string

// Stream event names.
const (
	EventInsert EventName = "INSERT"
	EventModify EventName = "MODIFY"
	EventRemove EventName = "REMOVE"
)

// Change is the part of a media table change a notification needs.
type Change struct {
	Event    EventName
	Key      model.RecordKey
	FileName string
	// Tags is nil when the new image has no tags attribute.
	Tags []string
}

// ChangeFromImage decodes the new image of a stream record. A nil image,
// as carried by REMOVE events, yields a Change without tags.
func ChangeFromImage(event EventName, image map[string]types.AttributeValue) (Change, error) {
	change := Change{Event: event}
	if image == nil {
		return change, nil
	}
	var rec model.MediaRecord
	if err := attributevalue.UnmarshalMap(image, &rec); err != nil {
		return change, Error.New("decode %s image: %w", event, err)
	}
	change.Key = rec.Key()
	change.FileName = rec.FileName
	if rec.Tags != nil {
		change.Tags = []string(rec.Tags)
	}
	return change, nil
}

// ChangesFromLambdaEvent decodes every record of a stream trigger. Records
// that fail to decode are left out and their errors combined.
func ChangesFromLambdaEvent(evt events.DynamoDBEvent) ([]Change, error) {
	var (
		changes []Change
		group   errs.Group
	)
	for _, record := range evt.Records {
		image, err := fromEventImage(record.Change.NewImage)
		if err != nil {
			group.Add(Error.New("record %s: %w", record.EventID, err))
			continue
		}
		change, err := ChangeFromImage(EventName(record.EventName), image)
		if err != nil {
			group.Add(err)
			continue
		}
		changes = append(changes, change)
	}
	return changes, group.Err()
}

func fromEventImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	if image == nil {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(image))
	for name, av := range image {
		converted, err := fromEventAttribute(av)
		if err != nil {
			return nil, errs.New("attribute %q: %w", name, err)
		}
		out[name] = converted
	}
	return out, nil
}

func fromEventAttribute(av events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch av.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: av.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: av.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: av.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: av.Binary()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: av.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: av.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: av.BinarySet()}, nil
	case events.DataTypeList:
		items := av.List()
		list := make([]types.AttributeValue, len(items))
		for i, item := range items {
			converted, err := fromEventAttribute(item)
			if err != nil {
				return nil, err
			}
			list[i] = converted
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case events.DataTypeMap:
		m, err := fromEventImage(av.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, errs.New("unsupported data type %v", av.DataType())
}
