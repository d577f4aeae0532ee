package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsyncObserverDelivers(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	obs := NewAsyncObserver(ObserverFunc(func(u Update) {
		mu.Lock()
		got = append(got, u.Status)
		mu.Unlock()
	}), 8)

	obs.Notify(Update{Status: "a"})
	obs.Notify(Update{Status: "b"})
	obs.Close()

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Zero(t, obs.Dropped())

	obs.Notify(Update{Status: "after close"})
	obs.Close()
	assert.Len(t, got, 2)
}

func TestAsyncObserverNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	obs := NewAsyncObserver(ObserverFunc(func(Update) {
		<-release
	}), 1)

	// The first update is taken by the delivery goroutine and blocks there,
	// the second fills the buffer, the rest must be dropped.
	for i := 0; i < 10; i++ {
		obs.Notify(Update{Status: "x"})
	}
	assert.GreaterOrEqual(t, obs.Dropped(), int64(8))

	close(release)
	obs.Close()
}
