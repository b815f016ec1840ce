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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extracted struct {
	Text  string
	Lines []string
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()
	key := StatementTextKey("abc123")

	value := extracted{Text: "01/05 CHECK 1001 150.00", Lines: []string{"01/05 CHECK 1001 150.00"}}
	require.NoError(t, c.Set(ctx, key, value, 10*time.Minute))
	assert.True(t, mr.Exists("tally:statement-text:abc123"))

	var got extracted
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, value, got)
}

func TestRedisCache_Miss(t *testing.T) {
	_, c := newTestCache(t)

	var got extracted
	found, err := c.Get(context.Background(), StatementTextKey("missing"), &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got.Text)
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()
	key := StatementTextKey("abc123")

	require.NoError(t, c.Set(ctx, key, "text", 10*time.Minute))
	require.NoError(t, c.Delete(ctx, key))

	var got string
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, c.Delete(ctx, StatementTextKey("never-set")))
}

func TestLocalOnlyCache(t *testing.T) {
	c := NewRedisCache(nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var got string
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got)
}
