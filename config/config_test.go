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

package config

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "",
		},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}

	// Redis is optional; the engine runs without locks, cache and queues.
	cnf = Configuration{
		DataSource: DataSourceConfig{
			Dns: "postgres://localhost:5432",
		},
	}
	err = cnf.validateAndAddDefaults()
	assert.NoError(t, err)
	assert.False(t, cnf.RedisEnabled())
	assert.Equal(t, "Tally Server", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, DEFAULT_AUTO_MATCH_QUEUE, cnf.Queue.AutoMatchQueue)
	assert.Equal(t, DEFAULT_WEBHOOK_QUEUE, cnf.Queue.WebhookQueue)
	assert.Equal(t, "0.01", cnf.Reconciliation.AmountTolerance)
	assert.Equal(t, DEFAULT_DATE_WINDOW_DAYS, cnf.Reconciliation.DateWindowDays)
	assert.Equal(t, DuplicatePolicyWarn, cnf.Reconciliation.DuplicateCheckPolicy)
	assert.Equal(t, DateOrderMDY, cnf.Reconciliation.DateOrder)
	assert.Equal(t, []int{30, 60, 90}, cnf.Reconciliation.AgingBuckets)
	assert.Equal(t, DEFAULT_PDFTOTEXT_PATH, cnf.Extraction.PdfToTextPath)
	assert.Equal(t, 10800, *cnf.RateLimit.CleanupIntervalSec)
}

func TestValidateReconciliationConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReconciliationConfig
		wantErr string
	}{
		{name: "bad tolerance", cfg: ReconciliationConfig{AmountTolerance: "abc"}, wantErr: "invalid amount tolerance"},
		{name: "negative tolerance", cfg: ReconciliationConfig{AmountTolerance: "-0.01"}, wantErr: "amount tolerance cannot be negative"},
		{name: "unknown policy", cfg: ReconciliationConfig{DuplicateCheckPolicy: "ignore"}, wantErr: "unknown duplicate check policy"},
		{name: "unknown date order", cfg: ReconciliationConfig{DateOrder: "YMD"}, wantErr: "unknown date order"},
		{name: "unsorted buckets", cfg: ReconciliationConfig{AgingBuckets: []int{60, 30}}, wantErr: "strictly increasing"},
		{name: "reject policy is case insensitive", cfg: ReconciliationConfig{DuplicateCheckPolicy: "REJECT", DateOrder: "dmy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validateAndAddDefaults()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTolerance(t *testing.T) {
	assert.Equal(t, "0.05", ReconciliationConfig{AmountTolerance: "0.05"}.Tolerance().String())
	assert.Equal(t, "0.01", ReconciliationConfig{AmountTolerance: "garbage"}.Tolerance().String())
}

func TestRateLimitDefaults(t *testing.T) {
	rps := 10.0
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: MemoryDataSource},
		RateLimit:  RateLimitConfig{RequestsPerSecond: &rps},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, 20, *cnf.RateLimit.Burst)

	burst := 8
	cnf = Configuration{
		DataSource: DataSourceConfig{Dns: MemoryDataSource},
		RateLimit:  RateLimitConfig{Burst: &burst},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, 4.0, *cnf.RateLimit.RequestsPerSecond)
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "tally.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource: DataSourceConfig{
			Dns: "temp-dns",
		},
		Reconciliation: ReconciliationConfig{
			DateWindowDays: 45,
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	// Environment variables override the file.
	t.Setenv("TALLY_PROJECT_NAME", "Env Project")
	t.Setenv("TALLY_RECONCILIATION_DUPLICATE_CHECK_POLICY", "reject")

	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile failed: %v", err)
	}

	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	assert.Equal(t, "Env Project", loadedConfig.ProjectName)
	assert.Equal(t, "temp-dns", loadedConfig.DataSource.Dns)
	assert.Equal(t, 45, loadedConfig.Reconciliation.DateWindowDays)
	assert.Equal(t, DuplicatePolicyReject, loadedConfig.Reconciliation.DuplicateCheckPolicy)
}

func TestInitConfig(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "tally.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "InitConfig Test",
		DataSource: DataSourceConfig{
			Dns: "init-config-dns",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	if err := InitConfig(tmpFile.Name()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	assert.Equal(t, "InitConfig Test", loadedConfig.ProjectName)
	assert.True(t, loadedConfig.RedisEnabled())
}

func TestMockDefaults(t *testing.T) {
	cnf := MockDefaults(func(c *Configuration) {
		c.Reconciliation.DuplicateCheckPolicy = DuplicatePolicyReject
	})
	fetched, err := Fetch()
	require.NoError(t, err)
	assert.Same(t, cnf, fetched)
	assert.Equal(t, MemoryDataSource, fetched.DataSource.Dns)
	assert.Equal(t, DuplicatePolicyReject, fetched.Reconciliation.DuplicateCheckPolicy)
}
