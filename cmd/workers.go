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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blnkfinance/tally"
	"github.com/blnkfinance/tally/config"
)

// processAutoMatch runs a queued auto-match inside its own span.
func (t *tallyInstance) processAutoMatch(ctx context.Context, task *asynq.Task) error {
	ctx, span := otel.Tracer("tally.workers").Start(ctx, "Process Auto-Match From Redis Queue",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if err := t.tally.ProcessAutoMatch(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logrus.WithError(err).Error("auto-match task failed")
		return err
	}
	return nil
}

func initializeQueues(conf *config.Configuration) map[string]int {
	return map[string]int{
		conf.Queue.AutoMatchQueue: 2,
		conf.Queue.WebhookQueue:   3,
	}
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, asynq.RedisClientOpt, error) {
	opt, err := tally.RedisClientOpt(conf)
	if err != nil {
		return nil, opt, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(opt, asynq.Config{
		// auto-match runs must not overlap
		Concurrency: 1,
		Queues:      queues,
		Logger:      logrus.StandardLogger(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logrus.WithError(err).WithField("type", task.Type()).Error("task failed")
		}),
	}), opt, nil
}

func initializeTaskHandlers(t *tallyInstance, conf *config.Configuration, mux *asynq.ServeMux) {
	mux.HandleFunc(conf.Queue.AutoMatchQueue, t.processAutoMatch)
	mux.HandleFunc(conf.Queue.WebhookQueue, tally.ProcessWebhook)
}

// workerCommands defines the "workers" command. The workers run queued
// auto-match requests and deliver webhooks.
func workerCommands(t *tallyInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start tally workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conf := t.cnf
			if !conf.RedisEnabled() {
				log.Fatal(errors.New("workers need redis.dns to be configured"))
			}

			shutdown, err := initializeTracing(ctx, conf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, opt, err := initializeWorkerServer(conf, initializeQueues(conf))
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(t, conf, mux)

			h := asynqmon.New(asynqmon.Options{
				RootPath:     "/monitoring",
				RedisConnOpt: opt,
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
