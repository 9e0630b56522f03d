package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one recording.
type Result struct {
	Blob Blob
	Err  error
}

// Handle tracks one recording.
type Handle struct {
	id      string
	kind    Kind
	started time.Time
	done    chan Result

	mu       sync.Mutex
	progress float64
	result   *Result
}

func newHandle(kind Kind, started time.Time) *Handle {
	return &Handle{
		id:      uuid.NewString(),
		kind:    kind,
		started: started,
		done:    make(chan Result, 1),
	}
}

// ID uniquely identifies the recording.
func (h *Handle) ID() string { return h.id }

// Kind returns the recorded frame kind.
func (h *Handle) Kind() Kind { return h.kind }

// Started returns when the recording began.
func (h *Handle) Started() time.Time { return h.started }

// Done delivers the result exactly once.
func (h *Handle) Done() <-chan Result { return h.done }

// Progress returns the last sampled progress in [0, 1].
func (h *Handle) Progress() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Result returns the outcome, if the recording has finished.
func (h *Handle) Result() (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return Result{}, false
	}
	return *h.result, true
}

func (h *Handle) setProgress(p float64) {
	h.mu.Lock()
	h.progress = min(max(p, 0), 1)
	h.mu.Unlock()
}

func (h *Handle) complete(r Result) {
	h.mu.Lock()
	if h.result != nil {
		h.mu.Unlock()
		return
	}
	h.result = &r
	if r.Err == nil {
		h.progress = 1
	}
	h.mu.Unlock()
	h.done <- r
}
