package vector

import (
	"sync/atomic"
	"time"
)

// Reader gives access to the currently published index.
type Reader interface {
	Current() *Snapshot
}

// Holder publishes snapshots. Readers always observe either the previous or the
// next complete snapshot, never a partially built one.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a holder publishing an empty snapshot.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(emptySnapshot())
	return h
}

// Current returns the published snapshot. It is never nil.
func (h *Holder) Current() *Snapshot {
	if s := h.current.Load(); s != nil {
		return s
	}
	return emptySnapshot()
}

// Swap publishes next and returns the snapshot it replaced.
func (h *Holder) Swap(next *Snapshot) *Snapshot {
	if next == nil {
		next = emptySnapshot()
	}
	if prev := h.current.Swap(next); prev != nil {
		return prev
	}
	return emptySnapshot()
}

// Stats summarizes a snapshot for status reporting.
type Stats struct {
	Chunks     int       `json:"chunks"`
	Documents  int       `json:"documents"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	BuiltAt    time.Time `json:"built_at"`
}
