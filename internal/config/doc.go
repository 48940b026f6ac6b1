// Package config loads, normalizes, and validates BirdTag configuration.
//
// Settings start from Default, are overlaid by an optional TOML file and then
// by the environment variables the Lambda deployment sets (MEDIA_TABLE,
// MEDIA_BUCKET, SES_SENDER and friends). Every binary obtains its settings
// through Load so the Lambdas, the local server and the CLI agree on table
// names, windows and log format.
package config
