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
	"errors"
	"time"

	"github.com/blnkfinance/tally/config"
	redis_db "github.com/blnkfinance/tally/internal/redis-db"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Queue enqueues background work on Redis through asynq.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	config    *config.Configuration
}

// AutoMatchPayload is the body of an auto-match task.
type AutoMatchPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// ErrQueueDisabled is returned when async work is requested without Redis.
var ErrQueueDisabled = errors.New("task queue is not configured")

// RedisClientOpt translates the configured Redis DNS into asynq connection options.
func RedisClientOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	addrs := redis_db.SplitAddresses(conf.Redis.Dns)
	if len(addrs) == 0 {
		return asynq.RedisClientOpt{}, ErrQueueDisabled
	}
	redisOption, err := redis_db.ParseRedisURL(addrs[0], conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

// NewQueue connects a client and an inspector to the configured Redis.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	opt, err := RedisClientOpt(conf)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:    asynq.NewClient(opt),
		Inspector: asynq.NewInspector(opt),
		config:    conf,
	}, nil
}

// EnqueueAutoMatch schedules one auto-match run and returns its task id.
// A run that is already waiting absorbs further requests for a minute.
func (q *Queue) EnqueueAutoMatch(ctx context.Context) (string, error) {
	payload, err := json.Marshal(AutoMatchPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	queue := q.config.Queue.AutoMatchQueue
	task := asynq.NewTask(queue, payload,
		asynq.Queue(queue),
		asynq.MaxRetry(3),
		asynq.Unique(time.Minute),
		asynq.Retention(24*time.Hour),
	)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"task_id": info.ID, "queue": info.Queue}).Info("auto-match enqueued")
	return info.ID, nil
}

// EnqueueWebhook schedules delivery of an event to the configured webhook.
func (q *Queue) EnqueueWebhook(ctx context.Context, hook NewWebhook) error {
	payload, err := json.Marshal(hook)
	if err != nil {
		return err
	}
	queue := q.config.Queue.WebhookQueue
	task := asynq.NewTask(queue, payload, asynq.Queue(queue), asynq.MaxRetry(5))
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		logrus.WithError(err).WithField("event", hook.Event).Error("failed to enqueue webhook")
		return err
	}
	logrus.WithFields(logrus.Fields{"task_id": info.ID, "event": hook.Event}).Debug("webhook enqueued")
	return nil
}

// TaskInfo looks up a task previously enqueued on queue.
func (q *Queue) TaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	return q.Inspector.GetTaskInfo(queue, id)
}

func (q *Queue) Close() error {
	return errors.Join(q.Client.Close(), q.Inspector.Close())
}

// ProcessAutoMatch is the asynq handler for auto-match tasks. The result is
// written back to the task so it can be read through the inspector.
func (t *Tally) ProcessAutoMatch(ctx context.Context, task *asynq.Task) error {
	var payload AutoMatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := t.AutoMatch(ctx)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"requested_at": payload.RequestedAt,
		"matched":      result.MatchedCount,
		"skipped":      result.SkippedCount,
		"unmatched":    result.UnmatchedCount,
		"deposits":     result.DepositsConfirmedCount,
	}).Info("auto-match task finished")

	if w := task.ResultWriter(); w != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
