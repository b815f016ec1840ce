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
	"net/http"

	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/internal/notification"
	"github.com/blnkfinance/tally/internal/request"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const (
	EventCheckRegistered   = "check.registered"
	EventCheckCancelled    = "check.cancelled"
	EventCheckCleared      = "check.cleared"
	EventCheckUncleared    = "check.uncleared"
	EventStatementUploaded = "statement.uploaded"
	EventDepositConfirmed  = "deposit.confirmed"
	EventAutoMatchFinished = "reconciliation.auto_match"
)

// NewWebhook is the body posted to the configured webhook URL.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// processHTTP posts data to the configured webhook.
func processHTTP(ctx context.Context, conf *config.Configuration, data NewWebhook) error {
	payload, err := request.ToJsonReq(data)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Webhook.Url, payload)
	if err != nil {
		return err
	}
	for key, value := range conf.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}

	if _, err := request.Call(req, nil); err != nil {
		return err
	}
	logrus.WithField("event", data.Event).Info("webhook notification sent")
	return nil
}

// ProcessWebhook is the asynq handler for webhook delivery tasks.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("error unmarshaling webhook payload")
		return err
	}
	logrus.WithField("event", payload.Event).Debug("processing webhook")
	return processHTTP(ctx, conf, payload)
}

// emit publishes event to the webhook when one is configured. Delivery goes
// through the queue when Redis is available and is attempted inline otherwise.
// Failures never fail the operation that produced the event.
func (t *Tally) emit(ctx context.Context, event string, data interface{}) {
	if t.config.Notification.Webhook.Url == "" {
		return
	}
	hook := NewWebhook{Event: event, Payload: data}
	ctx = context.WithoutCancel(ctx)

	if t.queue != nil {
		if err := t.queue.EnqueueWebhook(ctx, hook); err != nil {
			notification.NotifyError(err)
		}
		return
	}

	go func() {
		if err := processHTTP(ctx, t.config, hook); err != nil {
			logrus.WithError(err).WithField("event", event).Error("webhook delivery failed")
		}
	}()
}
