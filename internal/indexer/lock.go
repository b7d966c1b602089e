package indexer

import "sync/atomic"

// indexLock is a non-blocking single-flight guard.
type indexLock struct {
	state atomic.Int32 // 0 = idle, 1 = running
}

// tryAcquire takes the lock if it is free and reports whether it did.
func (l *indexLock) tryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// release frees the lock. Only the holder may call it.
func (l *indexLock) release() {
	l.state.Store(0)
}

func (l *indexLock) held() bool {
	return l.state.Load() == 1
}
