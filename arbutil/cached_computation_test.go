// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCachedComputationRunsOnce(t *testing.T) {
	var cached CachedComputation[int]
	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cached.Get(func() (int, error) {
				calls.Add(1)
				return 7, nil
			})
			if err != nil || v != 7 {
				t.Errorf("unexpected result %v %v", v, err)
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("computation ran %d times", calls.Load())
	}
	if v, ok := cached.Peek(); !ok || v != 7 {
		t.Fatalf("peek returned %v %v", v, ok)
	}
}

func TestCachedComputationRetriesFailure(t *testing.T) {
	var cached CachedComputation[string]
	_, err := cached.Get(func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := cached.Peek(); ok {
		t.Fatal("failed computation was cached")
	}
	v, err := cached.Get(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("unexpected result %v %v", v, err)
	}
}
