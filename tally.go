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
	"embed"
	"errors"

	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/database"
	"github.com/blnkfinance/tally/internal/archive"
	"github.com/blnkfinance/tally/internal/cache"
	"github.com/blnkfinance/tally/internal/files"
	redis_db "github.com/blnkfinance/tally/internal/redis-db"
	"github.com/redis/go-redis/v9"
)

// Tally is the reconciliation engine. It owns the ledger store and the
// optional collaborators (Redis, task queue, S3 archive) enabled by configuration.
type Tally struct {
	datasource database.IDataSource
	config     *config.Configuration
	redis      redis.UniversalClient
	queue      *Queue
	cache      cache.Cache
	archiver   archive.Archiver
	reader     *files.Reader
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewTally builds the engine around db using the loaded configuration.
// Redis, the task queue and the statement archive are only created when
// configured; without them locks are skipped, the text cache is process local,
// events are delivered inline and uploads are not archived.
func NewTally(db database.IDataSource) (*Tally, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	t := &Tally{
		datasource: db,
		config:     cnf,
		reader:     files.NewReader(cnf.Extraction.PdfToTextPath),
	}

	if cnf.RedisEnabled() {
		rc, err := redis_db.NewRedisClient(redis_db.SplitAddresses(cnf.Redis.Dns), cnf.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		t.redis = rc.Client()

		q, err := NewQueue(cnf)
		if err != nil {
			return nil, err
		}
		t.queue = q
	}
	t.cache = cache.NewRedisCache(t.redis)

	if cnf.Archive.Enabled() {
		a, err := archive.NewS3Archiver(cnf.Archive)
		if err != nil {
			return nil, err
		}
		t.archiver = a
	}

	return t, nil
}

// Datasource exposes the ledger store.
func (t *Tally) Datasource() database.IDataSource {
	return t.datasource
}

// Queue returns the task queue, or nil when Redis is not configured.
func (t *Tally) Queue() *Queue {
	return t.queue
}

// Config returns the configuration the engine was built with.
func (t *Tally) Config() *config.Configuration {
	return t.config
}

// RegisterExtractor installs or replaces the text extractor used for a file type.
func (t *Tally) RegisterExtractor(fileType string, e files.Extractor) {
	t.reader.Register(fileType, e)
}

// SetArchiver replaces the statement archive.
func (t *Tally) SetArchiver(a archive.Archiver) {
	t.archiver = a
}

// Close releases the Redis connections held by the engine.
func (t *Tally) Close() error {
	var err error
	if t.queue != nil {
		err = errors.Join(err, t.queue.Close())
	}
	if t.redis != nil {
		err = errors.Join(err, t.redis.Close())
	}
	return err
}

// Ping verifies the store answers. Used by the health endpoint.
func (t *Tally) Ping(ctx context.Context) error {
	_, err := t.datasource.GetStatements(ctx)
	return err
}
