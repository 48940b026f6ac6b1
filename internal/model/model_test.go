package model_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

func TestMediaRecordDynamoDB(t *testing.T) {
	rec := model.MediaRecord{
		ID:              5,
		FileType:        model.FileTypeImage,
		FileName:        "crow_01.jpg",
		PrimaryURL:      "s3://birds/image/crow_01.jpg",
		ThumbnailURL:    "s3://birds/thumbnails/crow_01.jpg",
		Tags:            model.TagList{"crow", "pigeon"},
		Counts:          model.CountList{3, 1},
		UploadTimestamp: "2026-02-25T12:00:00Z",
	}

	av, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)

	var got model.MediaRecord
	require.NoError(t, attributevalue.UnmarshalMap(av, &got))
	require.Equal(t, rec, got)
}

func TestMediaRecordDynamoDBAttributeNames(t *testing.T) {
	rec := model.MediaRecord{
		ID:           1,
		FileType:     model.FileTypeImage,
		FileName:     "a.jpg",
		PrimaryURL:   "s3://b/a.jpg",
		ThumbnailURL: "s3://b/t/a.jpg",
		Tags:         model.TagList{"crow"},
		Counts:       model.CountList{1},
	}

	av, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)

	for _, key := range []string{
		"id", "file_type", "file_name", "s3_url", "s3_thumbnail_url",
		"tags", "counts", "timestamp",
	} {
		require.Contains(t, av, key)
	}
	require.IsType(t, &types.AttributeValueMemberN{}, av["id"])
	require.IsType(t, &types.AttributeValueMemberL{}, av["tags"])
}

func TestMediaRecordOmitsEmptyThumbnail(t *testing.T) {
	av, err := attributevalue.MarshalMap(model.MediaRecord{ID: 2, FileType: model.FileTypeAudio})
	require.NoError(t, err)
	require.NotContains(t, av, "s3_thumbnail_url")
}

func TestMediaRecordLegacyShapes(t *testing.T) {
	tests := []struct {
		name       string
		tags       types.AttributeValue
		counts     types.AttributeValue
		wantTags   model.TagList
		wantCounts model.CountList
	}{
		{
			name:       "single string",
			tags:       &types.AttributeValueMemberS{Value: "crow"},
			counts:     &types.AttributeValueMemberN{Value: "2"},
			wantTags:   model.TagList{"crow"},
			wantCounts: model.CountList{2},
		},
		{
			name:       "wrapped scalar",
			tags:       &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"S": &types.AttributeValueMemberS{Value: "owl"}}},
			counts:     &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"N": &types.AttributeValueMemberN{Value: "4"}}},
			wantTags:   model.TagList{"owl"},
			wantCounts: model.CountList{4},
		},
		{
			name: "string set and numeric strings",
			tags: &types.AttributeValueMemberSS{Value: []string{"crow", "kiwi"}},
			counts: &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: "3"},
				&types.AttributeValueMemberS{Value: "x"},
			}},
			wantTags:   model.TagList{"crow", "kiwi"},
			wantCounts: model.CountList{3, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := map[string]types.AttributeValue{
				"id":        &types.AttributeValueMemberN{Value: "9"},
				"file_type": &types.AttributeValueMemberS{Value: "image"},
				"tags":      tt.tags,
				"counts":    tt.counts,
			}
			var got model.MediaRecord
			require.NoError(t, attributevalue.UnmarshalMap(item, &got))
			require.Equal(t, tt.wantTags, got.Tags)
			require.Equal(t, tt.wantCounts, got.Counts)
		})
	}
}

func TestMediaRecordMissingTags(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberN{Value: "9"},
		"file_type": &types.AttributeValueMemberS{Value: "video"},
	}
	var got model.MediaRecord
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	require.False(t, got.HasTags())

	item["tags"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	got = model.MediaRecord{}
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	require.True(t, got.HasTags())
	require.Empty(t, got.Tags)
}

func TestMediaRecordUntaggedRoundTrip(t *testing.T) {
	untagged := model.MediaRecord{ID: 3, FileType: model.FileTypeAudio, PrimaryURL: "s3://b/a.wav"}
	av, err := attributevalue.MarshalMap(untagged)
	require.NoError(t, err)
	require.IsType(t, &types.AttributeValueMemberNULL{}, av["tags"])

	var got model.MediaRecord
	require.NoError(t, attributevalue.UnmarshalMap(av, &got))
	require.False(t, got.HasTags())
	require.Nil(t, got.Counts)

	emptied := model.MediaRecord{ID: 4, FileType: model.FileTypeAudio, Tags: model.TagList{}, Counts: model.CountList{}}
	av, err = attributevalue.MarshalMap(emptied)
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberL{Value: []types.AttributeValue{}}, av["tags"])

	got = model.MediaRecord{}
	require.NoError(t, attributevalue.UnmarshalMap(av, &got))
	require.True(t, got.HasTags())
	require.Empty(t, got.Tags)
}

func TestMediaRecordRepair(t *testing.T) {
	tests := []struct {
		name    string
		tags    model.TagList
		counts  model.CountList
		want    model.CountList
		changed bool
	}{
		{"aligned", model.TagList{"crow"}, model.CountList{4}, model.CountList{4}, false},
		{"short counts", model.TagList{"crow", "owl"}, model.CountList{4}, model.CountList{1, 1}, true},
		{"missing counts", model.TagList{"crow"}, nil, model.CountList{1}, true},
		{"long counts", model.TagList{"crow"}, model.CountList{2, 7}, model.CountList{2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := model.MediaRecord{Tags: tt.tags, Counts: tt.counts}
			require.Equal(t, tt.changed, rec.Repair())
			require.Equal(t, tt.want, rec.Counts)
		})
	}
}

func TestSpeciesCounts(t *testing.T) {
	rec := model.MediaRecord{Tags: model.TagList{"Crow", "pigeon"}, Counts: model.CountList{3, 1}}
	require.Equal(t, map[string]int{"crow": 3, "pigeon": 1}, rec.SpeciesCounts())
}

func TestIdempotencyMarkerDynamoDBAttributeNames(t *testing.T) {
	marker := model.IdempotencyMarker{
		ID:        5,
		FileType:  model.FileTypeImage,
		CreatedAt: "2026-01-01T00:00:00Z",
		ExpiresAt: 1767225630,
	}

	av, err := attributevalue.MarshalMap(marker)
	require.NoError(t, err)
	for _, key := range []string{"id", "file_type", "operation_creation", "idempotency_expiration"} {
		require.Contains(t, av, key)
	}

	require.True(t, marker.LiveAt(1767225629))
	require.False(t, marker.LiveAt(1767225630))
}

func TestTagSubscription(t *testing.T) {
	sub := model.NewTagSubscription(" birder@example.com ", []string{"Crow", " owl", "crow", ""})
	require.Equal(t, "birder@example.com", sub.Email)
	require.Equal(t, "crow,owl", sub.Tags)
	require.Equal(t, map[string]struct{}{"crow": {}, "owl": {}}, sub.TagSet())
	require.True(t, sub.Matches([]string{"kiwi", "OWL"}))
	require.False(t, sub.Matches([]string{"kiwi"}))

	av, err := attributevalue.MarshalMap(sub)
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberS{Value: "crow,owl"}, av["tags"])
}

func TestFileTypes(t *testing.T) {
	tests := []struct {
		in    string
		want  model.FileType
		valid bool
	}{
		{"image", model.FileTypeImage, true},
		{" Video ", model.FileTypeVideo, true},
		{"AUDIO", model.FileTypeAudio, true},
		{"document", model.FileType("document"), false},
	}
	for _, tt := range tests {
		got, ok := model.ParseFileType(tt.in)
		require.Equal(t, tt.want, got, tt.in)
		require.Equal(t, tt.valid, ok, tt.in)
	}
}

func TestRetagRequestJSON(t *testing.T) {
	var req model.RetagRequest
	body := `{"url":["s3://b/k.jpg"],"operation":1,"tags":["crow",2,"owl","1"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Equal(t, []string{"s3://b/k.jpg"}, req.URLs)
	require.NotNil(t, req.Operation)
	require.Equal(t, model.OperationAdd, *req.Operation)
	require.Equal(t, model.FlatPairs{"crow", "2", "owl", "1"}, req.Tags)

	require.Error(t, json.Unmarshal([]byte(`{"tags":"crow"}`), &req))
	require.Error(t, json.Unmarshal([]byte(`{"tags":[["crow"]]}`), &req))
}

func TestSearchCriteriaJSON(t *testing.T) {
	var c model.SearchCriteria
	require.NoError(t, json.Unmarshal([]byte(`{" Crow ":2,"owl":"3","kiwi":0,"emu":"x","tui":-1}`), &c))
	require.Equal(t, model.SearchCriteria{"crow": 2, "owl": 3}, c)
}

func TestDetectionEventJSON(t *testing.T) {
	var evt model.DetectionEvent
	body := `{"fileName":"a.jpg","type":"image","originalUrl":"s3://b/a.jpg","tags":"crow","counts":{"N":"2"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &evt))
	require.Equal(t, model.TagList{"crow"}, evt.Tags)
	require.Equal(t, model.CountList{2}, evt.Counts)
}

func TestThumbnailRequestURL(t *testing.T) {
	require.Equal(t, "a", model.ThumbnailRequest{ThumbnailURL: " a ", LegacyThumbnailURL: "b"}.URL())
	require.Equal(t, "b", model.ThumbnailRequest{LegacyThumbnailURL: "b"}.URL())
}

func TestConstraintConstants(t *testing.T) {
	require.Equal(t, 300, model.PresignedURLTTLSeconds)
	require.Equal(t, 30, model.IdempotencyWindowSeconds)
	require.Equal(t, 0, model.OperationRemove)
	require.Equal(t, 1, model.OperationAdd)
}
