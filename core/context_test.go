package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := context.Background()

	const numGoroutines = 50
	done := make(chan bool, numGoroutines)

	ctx = WithQuietLoad(ctx)
	ctx = withSessionID(ctx, "d0k1example")

	for i := range numGoroutines {
		go func(id int) {
			defer func() { done <- true }()

			quiet := shouldQuietLoad(ctx)
			sessionID, ok := getSessionID(ctx)

			assert.True(t, quiet, "Goroutine %d: shouldQuietLoad should be true", id)
			assert.True(t, ok, "Goroutine %d: getSessionID should return true", id)
			assert.Equal(t, "d0k1example", sessionID, "Goroutine %d: unexpected session id", id)
		}(i)
	}

	for range numGoroutines {
		<-done
	}
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	baseCtx := context.Background()

	ctx1 := withSessionID(baseCtx, "one")
	ctx2 := WithQuietLoad(baseCtx)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		id, ok := getSessionID(ctx1)
		assert.True(t, ok)
		assert.Equal(t, "one", id)
		assert.False(t, shouldQuietLoad(ctx1))
	}()

	go func() {
		defer wg.Done()
		_, ok := getSessionID(ctx2)
		assert.False(t, ok)
		assert.True(t, shouldQuietLoad(ctx2))
	}()

	wg.Wait()
}
