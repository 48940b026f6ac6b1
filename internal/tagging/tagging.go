// Package tagging applies manual add/remove operations to a record's
// parallel tag and count arrays.
//
// Operations arrive as a flat [tag1, count1, tag2, count2, ...] sequence.
// Reconcile is pure: it copies its inputs and leaves persistence to the
// caller.
package tagging

import (
	"slices"
	"strings"

	"github.com/zeebo/errs"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// Error is the class of every input error returned by this package.
var Error = errs.Class("tag pairs")

// Operation selects how pairs are applied.
type Operation int

// Operations, numbered as on the wire.
const (
	Remove Operation = model.OperationRemove
	Add    Operation = model.OperationAdd
)

func (op Operation) String() string {
	switch op {
	case Add:
		return "add"
	case Remove:
		return "remove"
	}
	return "unknown"
}

// ParseOperation validates a wire operation value.
func ParseOperation(v int) (Operation, error) {
	switch op := Operation(v); op {
	case Add, Remove:
		return op, nil
	}
	return 0, Error.New("operation must be %d (remove) or %d (add), got %d", Remove, Add, v)
}

// Pair is one tag with its resolved count.
type Pair struct {
	Tag   string
	Count int
}

// NormalizeFlat returns a copy of flat with every tag position trimmed and
// lower-cased. Count positions are only trimmed.
func NormalizeFlat(flat []string) []string {
	out := make([]string, len(flat))
	for i, v := range flat {
		v = strings.TrimSpace(v)
		if i%2 == 0 {
			v = strings.ToLower(v)
		}
		out[i] = v
	}
	return out
}

// ParsePairs validates flat and resolves each count for op. Under Add a
// count that is not a positive integer becomes 1. Under Remove the count
// must be a non-negative integer.
func ParsePairs(op Operation, flat []string) ([]Pair, error) {
	if len(flat) == 0 {
		return nil, Error.New("no tag/count pairs supplied")
	}
	if len(flat)%2 != 0 {
		return nil, Error.New("tag/count sequence has odd length %d", len(flat))
	}

	pairs := make([]Pair, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		tag := strings.TrimSpace(flat[i])
		if tag == "" {
			return nil, Error.New("empty tag at position %d", i)
		}
		count, ok := model.ParseCount(flat[i+1])
		switch op {
		case Add:
			if !ok || count <= 0 {
				count = 1
			}
		case Remove:
			if !ok {
				return nil, Error.New("count %q for tag %q is not an integer", flat[i+1], tag)
			}
			if count < 0 {
				return nil, Error.New("count %d for tag %q is negative", count, tag)
			}
		default:
			return nil, Error.New("unknown operation %d", op)
		}
		pairs = append(pairs, Pair{Tag: tag, Count: count})
	}
	return pairs, nil
}

// Reconcile applies flat to the existing tags and counts, which must be
// aligned. Matching is case-sensitive; callers lower-case tags first.
//
// Add increases an existing tag's count or appends the tag. Remove with a
// count of 0 deletes the tag outright; a positive count is subtracted and
// the tag is deleted once its count reaches 0 or below. Removing an absent
// tag is a no-op.
func Reconcile(tags []string, counts []int, op Operation, flat []string) ([]string, []int, error) {
	if len(tags) != len(counts) {
		return nil, nil, Error.New("tags and counts are not aligned (%d != %d)", len(tags), len(counts))
	}
	pairs, err := ParsePairs(op, flat)
	if err != nil {
		return nil, nil, err
	}
	newTags, newCounts := Apply(tags, counts, op, pairs)
	return newTags, newCounts, nil
}

// Apply is Reconcile for already parsed pairs.
func Apply(tags []string, counts []int, op Operation, pairs []Pair) ([]string, []int) {
	outTags := slices.Clone(tags)
	outCounts := slices.Clone(counts)
	if outTags == nil {
		outTags = []string{}
	}
	if outCounts == nil {
		outCounts = []int{}
	}

	for _, p := range pairs {
		idx := slices.Index(outTags, p.Tag)
		switch op {
		case Add:
			if idx >= 0 {
				outCounts[idx] += p.Count
				continue
			}
			outTags = append(outTags, p.Tag)
			outCounts = append(outCounts, p.Count)
		case Remove:
			if idx < 0 {
				continue
			}
			if p.Count > 0 {
				outCounts[idx] -= p.Count
				if outCounts[idx] > 0 {
					continue
				}
			}
			outTags = slices.Delete(outTags, idx, idx+1)
			outCounts = slices.Delete(outCounts, idx, idx+1)
		}
	}
	return outTags, outCounts
}
