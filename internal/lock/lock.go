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

// Package redlock serializes work on a single record across processes with a
// Redis key. The database remains the source of truth; the lock only keeps two
// writers from racing each other into a conflict.
package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

var (
	ErrLockHeld      = errors.New("lock is already held")
	ErrNotLockHolder = errors.New("lock expired or is held by someone else")
)

// Locker holds one key. value identifies the holder so that only it can release the key.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{client: client, key: key, value: value}
}

// CheckKey is the lock key guarding a check while it is matched or unmatched.
func CheckKey(checkID string) string {
	return "tally:lock:check:" + checkID
}

// TransactionKey is the lock key guarding a bank transaction.
func TransactionKey(transactionID string) string {
	return "tally:lock:transaction:" + transactionID
}

// Lock makes a single attempt to take the key for ttl.
func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLockHeld, l.key)
	}
	return nil
}

// Unlock releases the key if this Locker still holds it.
func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("%w: %s", ErrNotLockHolder, l.key)
	}
	return nil
}

// WaitLock retries Lock with exponential backoff until it succeeds, wait
// elapses or ctx is done. Redis errors other than contention stop the retries.
func (l *Locker) WaitLock(ctx context.Context, ttl, wait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = wait

	err := backoff.Retry(func() error {
		err := l.Lock(ctx, ttl)
		if err == nil || errors.Is(err, ErrLockHeld) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			return fmt.Errorf("failed to acquire lock for key %s within %s: %w", l.key, wait, err)
		}
		return err
	}
	return nil
}

// WithLock runs fn while holding key. The key is released even when fn fails.
func WithLock(ctx context.Context, client redis.UniversalClient, key, holder string, ttl, wait time.Duration, fn func(ctx context.Context) error) error {
	locker := NewLocker(client, key, holder)
	if err := locker.WaitLock(ctx, ttl, wait); err != nil {
		return err
	}
	defer func() {
		_ = locker.Unlock(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
