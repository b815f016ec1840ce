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

package redlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Lock_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, CheckKey("chk_1"), "req-1")

	mock.ExpectSetNX("tally:lock:check:chk_1", "req-1", 5*time.Second).SetVal(true)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Lock_Held(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, CheckKey("chk_1"), "req-1")

	mock.ExpectSetNX("tally:lock:check:chk_1", "req-1", 5*time.Second).SetVal(false)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Unlock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, TransactionKey("btx_1"), "req-1")

	mock.ExpectEval(unlockScript, []string{"tally:lock:transaction:btx_1"}, "req-1").SetVal(int64(1))
	assert.NoError(t, locker.Unlock(context.Background()))

	mock.ExpectEval(unlockScript, []string{"tally:lock:transaction:btx_1"}, "req-1").SetVal(int64(0))
	assert.ErrorIs(t, locker.Unlock(context.Background()), ErrNotLockHolder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_WaitLock_RedisErrorIsNotRetried(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, CheckKey("chk_1"), "req-1")

	mock.ExpectSetNX("tally:lock:check:chk_1", "req-1", time.Second).SetErr(errors.New("connection refused"))

	err := locker.WaitLock(context.Background(), time.Second, time.Second)
	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLocker_WaitLock_AcquiresAfterRelease(t *testing.T) {
	_, client := newMiniredisClient(t)
	ctx := context.Background()

	first := NewLocker(client, CheckKey("chk_1"), "req-1")
	require.NoError(t, first.Lock(ctx, 5*time.Second))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = first.Unlock(ctx)
	}()

	second := NewLocker(client, CheckKey("chk_1"), "req-2")
	assert.NoError(t, second.WaitLock(ctx, 5*time.Second, 2*time.Second))
}

func TestLocker_WaitLock_Timeout(t *testing.T) {
	_, client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, NewLocker(client, CheckKey("chk_1"), "req-1").Lock(ctx, 5*time.Second))

	err := NewLocker(client, CheckKey("chk_1"), "req-2").WaitLock(ctx, 5*time.Second, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockHeld)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	mr, client := newMiniredisClient(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithLock(ctx, client, CheckKey("chk_1"), "req-1", 5*time.Second, time.Second, func(ctx context.Context) error {
		assert.True(t, mr.Exists("tally:lock:check:chk_1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("tally:lock:check:chk_1"))
}
