package config

import "github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"

// Store backends selectable with server.store.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Default returns the settings of the reference deployment.
func Default() Config {
	return Config{
		AWS: AWS{Region: "ap-southeast-2"},
		Tables: Tables{
			Media:         "birds_table",
			Idempotency:   "idempotency_data",
			Subscriptions: "tag_subscriptions",
		},
		Storage: Storage{
			PresignTTLSeconds: model.PresignedURLTTLSeconds,
		},
		Notifications: Notifications{
			PollIntervalSeconds: 1,
		},
		Idempotency: Idempotency{
			WindowSeconds: model.IdempotencyWindowSeconds,
		},
		Log: Logging{
			Level:  "info",
			Format: FormatJSON,
		},
		Server: Server{
			Bind:       "127.0.0.1:8080",
			Store:      StoreMemory,
			SQLitePath: "birdtag.db",
		},
	}
}
