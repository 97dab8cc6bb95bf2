// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"sync"
	"sync/atomic"
)

// CachedComputation runs a computation at most once successfully. Concurrent callers wait for the
// one in flight instead of repeating it; a failed computation is retried by the next caller.
type CachedComputation[T any] struct {
	complete atomic.Bool
	mutex    sync.Mutex
	value    T
}

func (c *CachedComputation[T]) Get(compute func() (T, error)) (T, error) {
	if c.complete.Load() {
		return c.value, nil
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.complete.Load() {
		return c.value, nil
	}
	computed, err := compute()
	if err != nil {
		return computed, err
	}
	c.value = computed
	c.complete.Store(true)
	return computed, nil
}

// Peek returns the cached value without computing it.
func (c *CachedComputation[T]) Peek() (T, bool) {
	if c.complete.Load() {
		return c.value, true
	}
	var empty T
	return empty, false
}
