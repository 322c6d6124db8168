package service

import (
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"survive/internal/common/clock"
	"survive/internal/logger"

	"go.uber.org/zap"
)

type timerEntry struct {
	timer clock.Timer
}

// timerSet holds at most one scheduled callback per key
type timerSet struct {
	mu     sync.Mutex
	clock  clock.Clock
	log    *zap.Logger
	timers map[string]*timerEntry
}

func newTimerSet(c clock.Clock, log *zap.Logger) *timerSet {
	return &timerSet{
		clock:  c,
		log:    log,
		timers: make(map[string]*timerEntry),
	}
}

func callTimerKey(roomID string) string  { return "call:" + roomID }
func roundTimerKey(roomID string) string { return "round:" + roomID }
func evictTimerKey(roomID, name string) string {
	return "evict:" + roomID + ":" + name
}

// schedule replaces any timer under key
func (t *timerSet) schedule(key string, d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.timers[key]; ok {
		old.timer.Stop()
	}

	e := &timerEntry{}
	e.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if t.timers[key] == e {
			delete(t.timers, key)
		}
		t.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(t.log.With(zap.String("timer", key)), r, debug.Stack())
			}
		}()
		f()
	})
	t.timers[key] = e
}

// cancel stops the timer under key. It reports whether a timer was stopped before firing.
func (t *timerSet) cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.timers[key]
	if !ok {
		return false
	}
	delete(t.timers, key)
	return e.timer.Stop()
}

// cancelRoom stops every timer belonging to roomID
func (t *timerSet) cancelRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	evictPrefix := evictTimerKey(roomID, "")
	for key, e := range t.timers {
		if key == callTimerKey(roomID) || key == roundTimerKey(roomID) || strings.HasPrefix(key, evictPrefix) {
			e.timer.Stop()
			delete(t.timers, key)
		}
	}
}

func (t *timerSet) has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[key]
	return ok
}

func (t *timerSet) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
