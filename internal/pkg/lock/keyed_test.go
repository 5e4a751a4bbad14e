package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	k := NewKeyed()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock(1)
			defer k.Unlock(1)

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestKeyed_DifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()
	k.Lock(1)
	defer k.Unlock(1)

	done := make(chan struct{})
	go func() {
		k.Lock(2)
		k.Unlock(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyed_EntriesDroppedAfterRelease(t *testing.T) {
	k := NewKeyed()

	k.Lock(1)
	k.Unlock(1)
	k.Lock(2)
	k.Unlock(2)

	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.entries)
}

func TestKeyed_UnlockUnheldPanics(t *testing.T) {
	k := NewKeyed()
	assert.Panics(t, func() { k.Unlock(99) })
}
