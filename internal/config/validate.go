package config

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTables(); err != nil {
		return err
	}
	if err := c.validateDurations(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateTables() error {
	switch {
	case c.Tables.Media == "":
		return Error.New("tables.media must be set")
	case c.Tables.Idempotency == "":
		return Error.New("tables.idempotency must be set")
	case c.Tables.Subscriptions == "":
		return Error.New("tables.subscriptions must be set")
	}
	return nil
}

func (c *Config) validateDurations() error {
	if c.Storage.PresignTTLSeconds <= 0 {
		return Error.New("storage.presign_ttl_seconds must be positive")
	}
	if c.Idempotency.WindowSeconds <= 0 {
		return Error.New("idempotency.window_seconds must be positive")
	}
	if c.Notifications.PollIntervalSeconds <= 0 {
		return Error.New("notifications.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return Error.New("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case FormatJSON, FormatConsole:
	default:
		return Error.New("log.format %q must be json or console", c.Log.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	switch c.Server.Store {
	case StoreMemory, StoreDynamoDB:
	case StoreSQLite:
		if c.Server.SQLitePath == "" {
			return Error.New("server.sqlite_path must be set for the sqlite store")
		}
	default:
		return Error.New("server.store %q must be memory, sqlite or dynamodb", c.Server.Store)
	}
	return nil
}
