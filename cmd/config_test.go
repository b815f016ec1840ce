package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blnkfinance/tally/config"
)

func TestRedactConfig(t *testing.T) {
	cfg := config.Configuration{}
	cfg.Server.SecretKey = "top-secret"
	cfg.DataSource.Dns = "postgres://tally:hunter2@db:5432/tally?sslmode=disable"
	cfg.Redis.Dns = "localhost:6379"
	cfg.Archive.AwsSecretAccessKey = "aws-secret"
	cfg.Notification.Webhook.Headers = map[string]string{"Authorization": "Bearer abc"}

	out := redactConfig(cfg)
	assert.Equal(t, redacted, out.Server.SecretKey)
	assert.Equal(t, redacted, out.Archive.AwsSecretAccessKey)
	assert.NotContains(t, out.DataSource.Dns, "hunter2")
	assert.Contains(t, out.DataSource.Dns, "db:5432")
	assert.Equal(t, "localhost:6379", out.Redis.Dns)
	assert.Equal(t, redacted, out.Notification.Webhook.Headers["Authorization"])

	assert.Equal(t, "top-secret", cfg.Server.SecretKey)
	assert.Equal(t, "Bearer abc", cfg.Notification.Webhook.Headers["Authorization"])
}
