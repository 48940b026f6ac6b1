package config

import (
	"strconv"
	"strings"
)

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"AWS_REGION":         &c.AWS.Region,
		"MEDIA_TABLE":        &c.Tables.Media,
		"IDEMPOTENCY_TABLE":  &c.Tables.Idempotency,
		"SUBSCRIPTION_TABLE": &c.Tables.Subscriptions,
		"MEDIA_BUCKET":       &c.Storage.Bucket,
		"SES_SENDER":         &c.Notifications.Sender,
		"SNS_TOPIC_ARN":      &c.Notifications.TopicARN,
		"STREAM_ARN":         &c.Notifications.StreamARN,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"BIRDTAG_BIND":       &c.Server.Bind,
		"BIRDTAG_STORE":      &c.Server.Store,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PRESIGN_TTL_SECONDS":        &c.Storage.PresignTTLSeconds,
		"IDEMPOTENCY_WINDOW_SECONDS": &c.Idempotency.WindowSeconds,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Error.New("%s: %q is not an integer", name, v)
		}
		*dst = n
	}
	return nil
}

func (c *Config) normalize() {
	c.AWS.Region = strings.TrimSpace(c.AWS.Region)
	c.Tables.Media = strings.TrimSpace(c.Tables.Media)
	c.Tables.Idempotency = strings.TrimSpace(c.Tables.Idempotency)
	c.Tables.Subscriptions = strings.TrimSpace(c.Tables.Subscriptions)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Notifications.Sender = strings.TrimSpace(c.Notifications.Sender)
	c.Notifications.TopicARN = strings.TrimSpace(c.Notifications.TopicARN)
	c.Notifications.StreamARN = strings.TrimSpace(c.Notifications.StreamARN)
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Store = strings.ToLower(strings.TrimSpace(c.Server.Store))
	c.Server.SQLitePath = strings.TrimSpace(c.Server.SQLitePath)
	c.normalizeLogging()
}

func (c *Config) normalizeLogging() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "", FormatJSON:
		c.Log.Format = FormatJSON
	case "text", FormatConsole:
		c.Log.Format = FormatConsole
	}
}
