/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tally

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/model"
	"github.com/hibiken/asynq"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookURL = "https://hooks.example.com/tally"

func TestProcessWebhook(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockDefaults(func(c *config.Configuration) {
		c.Notification.Webhook.Url = webhookURL
		c.Notification.Webhook.Headers = map[string]string{"X-Signature": "abc"}
	})

	var received NewWebhook
	httpmock.RegisterResponder(http.MethodPost, webhookURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "abc", req.Header.Get("X-Signature"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &received)
		return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
	})

	payload, err := json.Marshal(NewWebhook{Event: EventCheckCleared, Payload: map[string]string{"check_id": "chk_1"}})
	require.NoError(t, err)

	err = ProcessWebhook(context.Background(), asynq.NewTask("webhook_queue", payload))
	require.NoError(t, err)
	assert.Equal(t, EventCheckCleared, received.Event)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestProcessWebhook_ReceiverError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockDefaults(func(c *config.Configuration) {
		c.Notification.Webhook.Url = webhookURL
	})
	httpmock.RegisterResponder(http.MethodPost, webhookURL, httpmock.NewStringResponder(http.StatusBadGateway, "down"))

	payload, err := json.Marshal(NewWebhook{Event: EventCheckCleared})
	require.NoError(t, err)
	err = ProcessWebhook(context.Background(), asynq.NewTask("webhook_queue", payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProcessWebhook_NotConfigured(t *testing.T) {
	config.MockDefaults(nil)
	err := ProcessWebhook(context.Background(), asynq.NewTask("webhook_queue", []byte("not json")))
	assert.NoError(t, err)
}

func TestEmit_EnqueuesWhenRedisConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	tl, _ := newTestTally(t, func(c *config.Configuration) {
		c.Redis.Dns = mr.Addr()
		c.Notification.Webhook.Url = webhookURL
	})

	registerCheck(t, tl, "1001", "10.00", day(2024, 1, 1))

	pending, err := tl.Queue().Inspector.ListPendingTasks(tl.Config().Queue.WebhookQueue)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	var hook NewWebhook
	require.NoError(t, json.Unmarshal(pending[0].Payload, &hook))
	assert.Equal(t, EventCheckRegistered, hook.Event)
}

func TestEmit_DeliversInlineWithoutRedis(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var (
		mu     sync.Mutex
		events []string
	)
	httpmock.RegisterResponder(http.MethodPost, webhookURL, func(req *http.Request) (*http.Response, error) {
		var hook NewWebhook
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &hook)
		mu.Lock()
		events = append(events, hook.Event)
		mu.Unlock()
		return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
	})

	tl, _ := newTestTally(t, func(c *config.Configuration) {
		c.Notification.Webhook.Url = webhookURL
	})
	chk, _, err := tl.RegisterCheck(context.Background(), &model.Check{CheckNumber: "1", Payee: "A", DateIssued: day(2024, 1, 1), Amount: dec("1.00")})
	require.NoError(t, err)
	_, err = tl.CancelCheck(context.Background(), chk.CheckID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.ElementsMatch(t, []string{EventCheckRegistered, EventCheckCancelled}, events)
	mu.Unlock()
}
