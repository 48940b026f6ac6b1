package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
)

// Dispatcher emails subscribers whose species appear in a change.
type Dispatcher struct {
	subs   store.Subscriptions
	mailer Mailer
	log    *zap.Logger
	title  cases.Caser
}

// NewDispatcher returns a Dispatcher reading subscriptions from subs.
func NewDispatcher(subs store.Subscriptions, mailer Mailer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subs:   subs,
		mailer: mailer,
		log:    log,
		title:  cases.Title(language.English),
	}
}

// HandleChange sends one email per subscriber matching any tag in c and
// returns how many were sent. Inserts and modifications are handled; other
// events and changes without tags are ignored. Send failures are logged
// and do not stop the remaining subscribers. Only a failed subscription
// scan is returned.
func (d *Dispatcher) HandleChange(ctx context.Context, c Change) (int, error) {
	if c.Event != EventInsert && c.Event != EventModify {
		return 0, nil
	}
	tags := cleanTags(c.Tags)
	if len(tags) == 0 {
		d.log.Debug("change without tags", zap.Stringer("key", c.Key))
		return 0, nil
	}

	subs, err := d.subs.ScanSubscriptions(ctx)
	if err != nil {
		return 0, Error.Wrap(err)
	}

	msg := d.compose(c, tags)
	sent := 0
	seen := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		email := strings.ToLower(strings.TrimSpace(sub.Email))
		if email == "" || !sub.Matches(tags) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		msg.To = sub.Email
		if err := d.mailer.Send(ctx, msg); err != nil {
			d.log.Error("notification failed", zap.String("email", sub.Email), zap.Error(err))
			continue
		}
		sent++
	}
	d.log.Info("notified subscribers",
		zap.String("event", string(c.Event)),
		zap.Stringer("key", c.Key),
		zap.Strings("tags", tags),
		zap.Int("sent", sent))
	return sent, nil
}

func (d *Dispatcher) compose(c Change, tags []string) Email {
	titled := make([]string, len(tags))
	for i, tag := range tags {
		titled[i] = d.title.String(tag)
	}
	verb := "New"
	if c.Event == EventModify {
		verb = "Updated"
	}

	var body strings.Builder
	if c.Event == EventModify {
		body.WriteString("A bird entry you follow was updated.\n\n")
	} else {
		body.WriteString("A new bird entry matching your subscription was added.\n\n")
	}
	if c.FileName != "" {
		fmt.Fprintf(&body, "File: %s\n", c.FileName)
	}
	fmt.Fprintf(&body, "Species: %s\n", strings.Join(titled, ", "))

	return Email{
		Subject: fmt.Sprintf("%s Bird Entry: %s", verb, strings.Join(titled, ", ")),
		Body:    body.String(),
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
