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

package traces

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type capturedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

type captureExporter struct {
	mu      sync.Mutex
	records []capturedRecord
}

func (e *captureExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		c := capturedRecord{body: r.Body().AsString(), severity: r.Severity(), attrs: map[string]string{}}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			c.attrs[kv.Key] = kv.Value.AsString()
			return true
		})
		e.records = append(e.records, c)
	}
	return nil
}

func (e *captureExporter) Shutdown(context.Context) error   { return nil }
func (e *captureExporter) ForceFlush(context.Context) error { return nil }

func TestSetupOTelSDK_Disabled(t *testing.T) {
	shutdown, err := SetupOTelSDK(context.Background(), "tally-test", false)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupOTelSDK_Enabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4318")

	shutdown, err := SetupOTelSDK(context.Background(), "tally-test", true)
	require.NoError(t, err)

	_, span := otel.Tracer("tally.test").Start(context.Background(), "noop")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestLogrusHook_ForwardsEntries(t *testing.T) {
	exporter := &captureExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewLogrusHook(provider.Logger("tally-test")))

	logger.WithField("statement_id", "stmt_1").Info("statement uploaded")
	logger.WithError(errors.New("lock busy")).Warn("auto-match skipped")

	require.Len(t, exporter.records, 2)
	assert.Equal(t, "statement uploaded", exporter.records[0].body)
	assert.Equal(t, otellog.SeverityInfo, exporter.records[0].severity)
	assert.Equal(t, "stmt_1", exporter.records[0].attrs["statement_id"])

	assert.Equal(t, otellog.SeverityWarn, exporter.records[1].severity)
	assert.Equal(t, "lock busy", exporter.records[1].attrs[logrus.ErrorKey])
}

func TestSetupOTelSDK_InstallsLoggerProvider(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4318")

	shutdown, err := SetupOTelSDK(context.Background(), "tally-test", true)
	require.NoError(t, err)
	_, ok := global.GetLoggerProvider().(*sdklog.LoggerProvider)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
