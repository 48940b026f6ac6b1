package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TagValue is one of the shapes a tags or counts attribute takes across
// stored items, stream images and request payloads. Values flattens every
// shape into a plain ordered sequence.
type TagValue interface {
	tagValue()
}

// StringList is an ordered list of scalar values.
type StringList []string

// SingleString is a lone scalar stored where a list was expected.
type SingleString string

// WrappedScalar is a scalar inside a type envelope such as {"S": "crow"}
// or {"N": "2"}.
type WrappedScalar struct {
	Type  string
	Value string
}

func (StringList) tagValue()    {}
func (SingleString) tagValue()  {}
func (WrappedScalar) tagValue() {}

// Values flattens v. A nil value yields nil.
func Values(v TagValue) []string {
	switch t := v.(type) {
	case StringList:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case SingleString:
		return []string{string(t)}
	case WrappedScalar:
		return []string{t.Value}
	}
	return nil
}

// TagValueFromAttribute decodes a DynamoDB attribute. NULL yields nil.
func TagValueFromAttribute(av types.AttributeValue) (TagValue, error) {
	switch v := av.(type) {
	case nil:
		return nil, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return SingleString(v.Value), nil
	case *types.AttributeValueMemberN:
		return SingleString(v.Value), nil
	case *types.AttributeValueMemberSS:
		return StringList(append([]string{}, v.Value...)), nil
	case *types.AttributeValueMemberNS:
		return StringList(append([]string{}, v.Value...)), nil
	case *types.AttributeValueMemberM:
		return wrappedFromMap(v.Value)
	case *types.AttributeValueMemberL:
		list := make(StringList, 0, len(v.Value))
		for i, item := range v.Value {
			inner, err := TagValueFromAttribute(item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			values := Values(inner)
			if len(values) != 1 {
				return nil, fmt.Errorf("list element %d: expected scalar", i)
			}
			list = append(list, values[0])
		}
		return list, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %T", av)
}

func wrappedFromMap(m map[string]types.AttributeValue) (TagValue, error) {
	for _, name := range []string{"S", "N"} {
		inner, ok := m[name]
		if !ok {
			continue
		}
		values := Values(scalarValue(inner))
		if len(values) == 1 {
			return WrappedScalar{Type: name, Value: values[0]}, nil
		}
	}
	return nil, fmt.Errorf("map without S or N member")
}

func scalarValue(av types.AttributeValue) TagValue {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return SingleString(v.Value)
	case *types.AttributeValueMemberN:
		return SingleString(v.Value)
	}
	return nil
}

// TagValueFromJSON decodes a JSON payload value: an array of strings or
// numbers, a lone string or number, or an {"S": ...}/{"N": ...} envelope.
func TagValueFromJSON(data []byte) (TagValue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		list := make(StringList, 0, len(raw))
		for i, item := range raw {
			inner, err := TagValueFromJSON(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			values := Values(inner)
			if len(values) != 1 {
				return nil, fmt.Errorf("element %d: expected scalar", i)
			}
			list = append(list, values[0])
		}
		return list, nil
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		for _, name := range []string{"S", "N"} {
			raw, ok := env[name]
			if !ok {
				continue
			}
			inner, err := TagValueFromJSON(raw)
			if err != nil {
				return nil, err
			}
			if values := Values(inner); len(values) == 1 {
				return WrappedScalar{Type: name, Value: values[0]}, nil
			}
		}
		return nil, fmt.Errorf("object without S or N member")
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return SingleString(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unsupported value %s", data)
	}
	return SingleString(n.String()), nil
}

// TagList is the ordered species list of a record.
type TagList []string

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (l *TagList) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, err := TagValueFromAttribute(av)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if v == nil {
		*l = nil
		return nil
	}
	*l = append(TagList{}, Values(v)...)
	return nil
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler. A nil
// list is written as NULL so it reads back as absent; an empty list is
// written as an empty L so an emptied record keeps its attribute.
func (l TagList) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if l == nil {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	items := make([]types.AttributeValue, len(l))
	for i, tag := range l {
		items[i] = &types.AttributeValueMemberS{Value: tag}
	}
	return &types.AttributeValueMemberL{Value: items}, nil
}

// UnmarshalJSON accepts every TagValue shape.
func (l *TagList) UnmarshalJSON(data []byte) error {
	v, err := TagValueFromJSON(data)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if v == nil {
		*l = nil
		return nil
	}
	*l = append(TagList{}, Values(v)...)
	return nil
}

// CountList holds the per-tag counts of a record, aligned with TagList.
type CountList []int

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
// Values that do not parse as numbers decode to 0.
func (c *CountList) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, err := TagValueFromAttribute(av)
	if err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	*c = countsFrom(v)
	return nil
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler. A nil
// list is written as NULL, like TagList.
func (c CountList) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if c == nil {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	items := make([]types.AttributeValue, len(c))
	for i, n := range c {
		items[i] = &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
	}
	return &types.AttributeValueMemberL{Value: items}, nil
}

// UnmarshalJSON accepts every TagValue shape.
func (c *CountList) UnmarshalJSON(data []byte) error {
	v, err := TagValueFromJSON(data)
	if err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	*c = countsFrom(v)
	return nil
}

func countsFrom(v TagValue) CountList {
	if v == nil {
		return nil
	}
	values := Values(v)
	out := make(CountList, len(values))
	for i, s := range values {
		out[i], _ = ParseCount(s)
	}
	return out
}

// ParseCount parses an integer count. Decimal input is truncated; anything
// else returns 0 and false.
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
