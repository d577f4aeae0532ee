package service

import (
	"sync"
	"sync/atomic"

	"github.com/MimeLyc/videotools/pkg/log"
)

// Update is one notification emitted during a run.
type Update struct {
	Phase    Phase   `json:"phase"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
	Err      error   `json:"-"`
}

// Observer receives run updates. Implementations must not block.
type Observer interface {
	Notify(Update)
}

type ObserverFunc func(Update)

func (f ObserverFunc) Notify(u Update) { f(u) }

type nopObserver struct{}

func (nopObserver) Notify(Update) {}

// LogObserver writes every update to the log.
type LogObserver struct{}

func (LogObserver) Notify(u Update) {
	if u.Err != nil {
		log.Error("[%3.0f%%] %s", u.Progress*100, u.Status)
		return
	}
	log.Info("[%3.0f%%] %s", u.Progress*100, u.Status)
}

// AsyncObserver forwards updates to another observer from its own goroutine.
// When the buffer is full the update is dropped so Notify never blocks.
type AsyncObserver struct {
	target  Observer
	ch      chan Update
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewAsyncObserver(target Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 64
	}
	a := &AsyncObserver{
		target: target,
		ch:     make(chan Update, buffer),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *AsyncObserver) loop() {
	defer close(a.done)
	for u := range a.ch {
		a.target.Notify(u)
	}
}

func (a *AsyncObserver) Notify(u Update) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- u:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many updates were discarded.
func (a *AsyncObserver) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting updates and waits until buffered ones are delivered.
func (a *AsyncObserver) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
