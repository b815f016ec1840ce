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
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/wacul/ptr"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT              = "5001"
	DEFAULT_AMOUNT_TOLERANCE  = "0.01"
	DEFAULT_DATE_WINDOW_DAYS  = 60
	DEFAULT_AUTO_MATCH_QUEUE  = "reconciliation_auto_match"
	DEFAULT_WEBHOOK_QUEUE     = "webhook_queue"
	DEFAULT_MONITORING_PORT   = "5004"
	DEFAULT_PDFTOTEXT_PATH    = "pdftotext"
	DEFAULT_EXTRACT_CACHE_TTL = 3600

	MemoryDataSource = "memory://"

	DuplicatePolicyWarn   = "warn"
	DuplicatePolicyReject = "reject"

	DateOrderMDY = "MDY"
	DateOrderDMY = "DMY"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"TALLY_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"TALLY_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TALLY_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"TALLY_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"TALLY_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"TALLY_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TALLY_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TALLY_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TALLY_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	AutoMatchQueue string `json:"auto_match_queue" envconfig:"TALLY_QUEUE_AUTO_MATCH"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"TALLY_QUEUE_WEBHOOK"`
	MonitoringPort string `json:"monitoring_port" envconfig:"TALLY_QUEUE_MONITORING_PORT"`
}

// ReconciliationConfig holds the matching and reporting knobs.
type ReconciliationConfig struct {
	AmountTolerance      string `json:"amount_tolerance" envconfig:"TALLY_RECONCILIATION_AMOUNT_TOLERANCE"`
	DateWindowDays       int    `json:"date_window_days" envconfig:"TALLY_RECONCILIATION_DATE_WINDOW_DAYS"`
	DuplicateCheckPolicy string `json:"duplicate_check_policy" envconfig:"TALLY_RECONCILIATION_DUPLICATE_CHECK_POLICY"`
	DateOrder            string `json:"date_order" envconfig:"TALLY_RECONCILIATION_DATE_ORDER"`
	AgingBuckets         []int  `json:"aging_buckets" envconfig:"TALLY_RECONCILIATION_AGING_BUCKETS"`
}

// Tolerance returns the configured amount tolerance as a decimal.
func (r ReconciliationConfig) Tolerance() decimal.Decimal {
	tol, err := decimal.NewFromString(r.AmountTolerance)
	if err != nil {
		return decimal.RequireFromString(DEFAULT_AMOUNT_TOLERANCE)
	}
	return tol
}

type ArchiveConfig struct {
	S3BucketName       string `json:"s3_bucket_name" envconfig:"TALLY_ARCHIVE_S3_BUCKET"`
	S3Region           string `json:"s3_region" envconfig:"TALLY_ARCHIVE_S3_REGION"`
	S3Endpoint         string `json:"s3_endpoint" envconfig:"TALLY_ARCHIVE_S3_ENDPOINT"`
	AwsAccessKeyId     string `json:"aws_access_key_id" envconfig:"TALLY_ARCHIVE_AWS_ACCESS_KEY_ID"`
	AwsSecretAccessKey string `json:"aws_secret_access_key" envconfig:"TALLY_ARCHIVE_AWS_SECRET_ACCESS_KEY"`
	Prefix             string `json:"prefix" envconfig:"TALLY_ARCHIVE_PREFIX"`
}

// Enabled reports whether raw statements should be archived.
func (a ArchiveConfig) Enabled() bool {
	return a.S3BucketName != ""
}

type ExtractionConfig struct {
	PdfToTextPath   string `json:"pdftotext_path" envconfig:"TALLY_EXTRACTION_PDFTOTEXT_PATH"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" envconfig:"TALLY_EXTRACTION_CACHE_TTL"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TALLY_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TALLY_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TALLY_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"TALLY_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url" envconfig:"TALLY_WEBHOOK_URL"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string               `json:"project_name" envconfig:"TALLY_PROJECT_NAME"`
	EnableTelemetry bool                 `json:"enable_telemetry" envconfig:"TALLY_ENABLE_TELEMETRY"`
	Server          ServerConfig         `json:"server"`
	DataSource      DataSourceConfig     `json:"data_source"`
	Redis           RedisConfig          `json:"redis"`
	Queue           QueueConfig          `json:"queue"`
	Reconciliation  ReconciliationConfig `json:"reconciliation"`
	Archive         ArchiveConfig        `json:"archive"`
	Extraction      ExtractionConfig     `json:"extraction"`
	Notification    Notification         `json:"notification"`
	RateLimit       RateLimitConfig      `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tally", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called tally.json with your config ❌")
	}
	return c, nil
}

// RedisEnabled reports whether a Redis instance is configured for locks, cache and queues.
func (cnf *Configuration) RedisEnabled() bool {
	return cnf.Redis.Dns != ""
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Tally Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.AutoMatchQueue == "" {
		cnf.Queue.AutoMatchQueue = DEFAULT_AUTO_MATCH_QUEUE
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DEFAULT_WEBHOOK_QUEUE
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}

	if err := cnf.Reconciliation.validateAndAddDefaults(); err != nil {
		return err
	}

	if cnf.Extraction.PdfToTextPath == "" {
		cnf.Extraction.PdfToTextPath = DEFAULT_PDFTOTEXT_PATH
	}
	if cnf.Extraction.CacheTTLSeconds <= 0 {
		cnf.Extraction.CacheTTLSeconds = DEFAULT_EXTRACT_CACHE_TTL
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		cnf.RateLimit.Burst = ptr.Int(2 * int(*cnf.RateLimit.RequestsPerSecond))
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", *cnf.RateLimit.Burst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		cnf.RateLimit.RequestsPerSecond = ptr.Float64(float64(*cnf.RateLimit.Burst) / 2)
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", *cnf.RateLimit.RequestsPerSecond)
	}

	if cnf.RateLimit.CleanupIntervalSec == nil {
		cnf.RateLimit.CleanupIntervalSec = ptr.Int(10800) // 3 hours
	}

	return nil
}

func (r *ReconciliationConfig) validateAndAddDefaults() error {
	r.AmountTolerance = strings.TrimSpace(r.AmountTolerance)
	if r.AmountTolerance == "" {
		r.AmountTolerance = DEFAULT_AMOUNT_TOLERANCE
	}
	tol, err := decimal.NewFromString(r.AmountTolerance)
	if err != nil {
		return fmt.Errorf("invalid amount tolerance %q: %w", r.AmountTolerance, err)
	}
	if tol.IsNegative() {
		return errors.New("amount tolerance cannot be negative")
	}

	if r.DateWindowDays <= 0 {
		r.DateWindowDays = DEFAULT_DATE_WINDOW_DAYS
	}

	r.DuplicateCheckPolicy = strings.ToLower(strings.TrimSpace(r.DuplicateCheckPolicy))
	switch r.DuplicateCheckPolicy {
	case "":
		r.DuplicateCheckPolicy = DuplicatePolicyWarn
	case DuplicatePolicyWarn, DuplicatePolicyReject:
	default:
		return fmt.Errorf("unknown duplicate check policy %q", r.DuplicateCheckPolicy)
	}

	r.DateOrder = strings.ToUpper(strings.TrimSpace(r.DateOrder))
	switch r.DateOrder {
	case "":
		r.DateOrder = DateOrderMDY
	case DateOrderMDY, DateOrderDMY:
	default:
		return fmt.Errorf("unknown date order %q", r.DateOrder)
	}

	if len(r.AgingBuckets) == 0 {
		r.AgingBuckets = []int{30, 60, 90}
	}
	for i := 1; i < len(r.AgingBuckets); i++ {
		if r.AgingBuckets[i] <= r.AgingBuckets[i-1] {
			return errors.New("aging buckets must be strictly increasing")
		}
	}
	if r.AgingBuckets[0] < 0 {
		return errors.New("aging buckets cannot be negative")
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

// MockDefaults stores a configuration with every default filled in, backed by the in-memory data source.
func MockDefaults(overrides func(*Configuration)) *Configuration {
	cnf := &Configuration{DataSource: DataSourceConfig{Dns: MemoryDataSource}}
	if overrides != nil {
		overrides(cnf)
	}
	_ = cnf.validateAndAddDefaults()
	MockConfig(cnf)
	return cnf
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
