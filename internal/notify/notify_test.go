package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/memstore"
)

type recordingMailer struct {
	sent []notify.Email
	fail map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Email) error {
	if m.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func subscribers(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.PutSubscription(ctx, model.NewTagSubscription("crow@example.com", []string{"crow"})))
	require.NoError(t, s.PutSubscription(ctx, model.NewTagSubscription("both@example.com", []string{"crow", "owl"})))
	require.NoError(t, s.PutSubscription(ctx, model.NewTagSubscription("kiwi@example.com", []string{"kiwi"})))
	return s
}

func TestHandleChange(t *testing.T) {
	mailer := &recordingMailer{}
	d := notify.NewDispatcher(subscribers(t), mailer, zaptest.NewLogger(t))

	sent, err := d.HandleChange(context.Background(), notify.Change{
		Event:    notify.EventInsert,
		Key:      model.RecordKey{ID: 5, FileType: model.FileTypeImage},
		FileName: "crow_01.jpg",
		Tags:     []string{"Crow", "owl"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Len(t, mailer.sent, 2)
	require.Equal(t, "crow@example.com", mailer.sent[0].To)
	require.Equal(t, "both@example.com", mailer.sent[1].To, "one email per subscriber")
	require.Equal(t, "New Bird Entry: Crow, Owl", mailer.sent[0].Subject)
	require.Contains(t, mailer.sent[0].Body, "crow_01.jpg")
}

func TestHandleChangeEvents(t *testing.T) {
	tests := []struct {
		name    string
		change  notify.Change
		sent    int
		subject string
	}{
		{"modify", notify.Change{Event: notify.EventModify, Tags: []string{"kiwi"}}, 1, "Updated Bird Entry: Kiwi"},
		{"remove ignored", notify.Change{Event: notify.EventRemove, Tags: []string{"kiwi"}}, 0, ""},
		{"no tags", notify.Change{Event: notify.EventInsert}, 0, ""},
		{"blank tags", notify.Change{Event: notify.EventInsert, Tags: []string{" "}}, 0, ""},
		{"no subscriber", notify.Change{Event: notify.EventInsert, Tags: []string{"emu"}}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &recordingMailer{}
			d := notify.NewDispatcher(subscribers(t), mailer, zaptest.NewLogger(t))
			sent, err := d.HandleChange(context.Background(), tt.change)
			require.NoError(t, err)
			require.Equal(t, tt.sent, sent)
			if tt.subject != "" {
				require.Equal(t, tt.subject, mailer.sent[0].Subject)
			}
		})
	}
}

func TestHandleChangeContinuesAfterSendFailure(t *testing.T) {
	mailer := &recordingMailer{fail: map[string]bool{"crow@example.com": true}}
	d := notify.NewDispatcher(subscribers(t), mailer, zaptest.NewLogger(t))

	sent, err := d.HandleChange(context.Background(), notify.Change{Event: notify.EventInsert, Tags: []string{"crow"}})
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Equal(t, "both@example.com", mailer.sent[0].To)
}

func TestChangesFromLambdaEvent(t *testing.T) {
	evt := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		{
			EventID:   "1",
			EventName: "INSERT",
			Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
				"id":        events.NewNumberAttribute("5"),
				"file_type": events.NewStringAttribute("image"),
				"file_name": events.NewStringAttribute("crow_01.jpg"),
				"tags": events.NewListAttribute([]events.DynamoDBAttributeValue{
					events.NewStringAttribute("crow"),
					events.NewStringAttribute("owl"),
				}),
				"counts": events.NewListAttribute([]events.DynamoDBAttributeValue{
					events.NewNumberAttribute("2"),
					events.NewNumberAttribute("1"),
				}),
			}},
		},
		{
			EventID:   "2",
			EventName: "MODIFY",
			Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
				"id":        events.NewNumberAttribute("6"),
				"file_type": events.NewStringAttribute("video"),
				"tags": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
					"S": events.NewStringAttribute("kiwi"),
				}),
			}},
		},
		{EventID: "3", EventName: "REMOVE"},
	}}

	changes, err := notify.ChangesFromLambdaEvent(evt)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	require.Equal(t, notify.Change{
		Event:    notify.EventInsert,
		Key:      model.RecordKey{ID: 5, FileType: model.FileTypeImage},
		FileName: "crow_01.jpg",
		Tags:     []string{"crow", "owl"},
	}, changes[0])
	require.Equal(t, []string{"kiwi"}, changes[1].Tags)
	require.Equal(t, notify.EventRemove, changes[2].Event)
	require.Nil(t, changes[2].Tags)
}

type fakeSES struct{ input *ses.SendEmailInput }

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct{ input *sns.PublishInput }

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{}, nil
}

func TestSESMailer(t *testing.T) {
	api := &fakeSES{}
	m := notify.NewMailer(api, "alerts@example.com", zaptest.NewLogger(t))
	require.NoError(t, m.Send(context.Background(), notify.Email{To: "a@example.com", Subject: "s", Body: "b"}))
	require.Equal(t, "alerts@example.com", aws.ToString(api.input.Source))
	require.Equal(t, []string{"a@example.com"}, api.input.Destination.ToAddresses)
	require.Equal(t, "b", aws.ToString(api.input.Message.Body.Text.Data))

	noop := notify.NewMailer(api, "", zaptest.NewLogger(t))
	api.input = nil
	require.NoError(t, noop.Send(context.Background(), notify.Email{To: "a@example.com"}))
	require.Nil(t, api.input)
}

func TestSNSPublisher(t *testing.T) {
	api := &fakeSNS{}
	p := notify.NewPublisher(api, "arn:aws:sns:ap-southeast-2:123:birds", zaptest.NewLogger(t))
	require.NoError(t, p.Publish(context.Background(), "New Crow Upload", "crow_01.jpg"))
	require.Equal(t, "arn:aws:sns:ap-southeast-2:123:birds", aws.ToString(api.input.TopicArn))
	require.Equal(t, "New Crow Upload", aws.ToString(api.input.Subject))

	api.input = nil
	require.NoError(t, notify.NewPublisher(api, " ", zaptest.NewLogger(t)).Publish(context.Background(), "x", "y"))
	require.Nil(t, api.input)
}
