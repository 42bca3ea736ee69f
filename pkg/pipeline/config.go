package pipeline

import "errors"

// ErrQueueFull is returned to producers when the config queue is at
// capacity. The loop drains at most one update per frame, so a
// controller spamming updates is expected to see this.
var ErrQueueFull = errors.New("pipeline: config queue full")

// DefaultQueueSize bounds how many pending updates a controller can
// have in flight.
const DefaultQueueSize = 16

// LiveConfig is the per-iteration mutable state of the loop. It is
// owned by the pipeline goroutine and read once at the top of each
// frame; external writers go through the Queue.
type LiveConfig struct {
	// BackgroundPath is the virtual background image, or empty for
	// the privacy-blur fallback.
	BackgroundPath string

	// Hologram enables the stylized foreground effect.
	Hologram bool

	// Mirror flips the output horizontally.
	Mirror bool
}

// Update is one controller message. It fully replaces the live
// configuration: a nil Background means "no virtual background", not
// "keep the current one".
type Update struct {
	Background *string
	Hologram   bool
	Mirror     bool
}

// Queue is the live config channel between the control plane and the
// capture loop. The producer never blocks (Push fails fast when full)
// and the consumer never blocks (Poll is non-blocking); the channel's
// own synchronization is the only lock in the system.
type Queue struct {
	ch chan Update
}

// NewQueue creates a queue. A non-positive capacity uses
// DefaultQueueSize.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Queue{ch: make(chan Update, capacity)}
}

// Push enqueues an update without blocking. Returns ErrQueueFull when
// the loop is behind.
func (q *Queue) Push(u Update) error {
	select {
	case q.ch <- u:
		return nil
	default:
		return ErrQueueFull
	}
}

// Poll removes at most one pending update without blocking.
func (q *Queue) Poll() (Update, bool) {
	select {
	case u := <-q.ch:
		return u, true
	default:
		return Update{}, false
	}
}

// Len reports the number of pending updates.
func (q *Queue) Len() int {
	return len(q.ch)
}
