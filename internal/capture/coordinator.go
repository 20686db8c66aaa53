package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"flowsight/internal/logging"
)

// DefaultDebounce is the minimum interval between accepted captures.
const DefaultDebounce = 3 * time.Second

// Frame is one captured screen image plus coarse metadata. The pixel buffer
// is sensitive: it must never reach persistent storage and callers scrub it
// with Scrub once analysis finishes.
type Frame struct {
	Data     []byte
	Width    int
	Height   int
	Channels int
}

// Source produces screen frames. A (zero, false, nil) return means no display
// is available, which is a normal outcome rather than an error.
type Source interface {
	Capture(ctx context.Context) (Frame, bool, error)
}

// Reject reasons reported on Result when no frame was accepted.
const (
	RejectDebounced   = "debounced"
	RejectUnavailable = "unavailable"
)

// Result reports the outcome of one capture attempt. Hash carries the content
// digest of the last accepted frame even when the attempt was rejected, so
// callers can cheaply detect "no visual change". Reject distinguishes a
// throttled attempt from a source that produced no frame.
type Result struct {
	Captured bool
	Reject   string
	Hash     string
	Changed  bool
	Width    int
	Height   int
	Channels int
}

// Coordinator throttles and deduplicates expensive capture cycles. It keeps
// the last accepted capture time and content hash; both the change-hash path
// and the analysis path share this single throttle.
type Coordinator struct {
	source   Source
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	lastTime time.Time
	lastHash string

	now func() time.Time
}

// Option configures optional coordinator behavior.
type Option func(*Coordinator)

// WithDebounce overrides the minimum interval between accepted captures.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator wraps a capture source with debounce and dedup state.
func NewCoordinator(source Source, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Coordinator{
		source:   source,
		logger:   logger,
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TryCapture attempts one capture cycle. Calls inside the debounce window,
// source errors, and "no display" all return Captured=false with the previous
// hash; none of them are errors. On acceptance the frame is returned for
// analysis and the coordinator records its timestamp and content hash, even
// if the detection ultimately finds no blocker. The debounce window is
// reserved before the source runs; a source failure releases it so the next
// caller may retry immediately.
func (c *Coordinator) TryCapture(ctx context.Context) (Result, Frame) {
	c.mu.Lock()
	reserved := c.now()
	previousTime := c.lastTime
	previousHash := c.lastHash
	if !previousTime.IsZero() && reserved.Sub(previousTime) < c.debounce {
		c.mu.Unlock()
		return Result{Reject: RejectDebounced, Hash: previousHash}, Frame{}
	}
	// Reserve the window before the slow source call. Concurrent callers
	// must see the updated timestamp, or they all pass the check above and
	// capture inside one window.
	c.lastTime = reserved
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		if c.lastTime.Equal(reserved) {
			c.lastTime = previousTime
		}
		c.mu.Unlock()
	}

	frame, ok, err := c.source.Capture(ctx)
	if err != nil {
		release()
		c.logger.Warn("capture source error", logging.Error(err))
		return Result{Reject: RejectUnavailable, Hash: previousHash}, Frame{}
	}
	if !ok || len(frame.Data) == 0 {
		release()
		return Result{Reject: RejectUnavailable, Hash: previousHash}, Frame{}
	}

	digest := sha256.Sum256(frame.Data)
	hash := hex.EncodeToString(digest[:])

	c.mu.Lock()
	changed := hash != c.lastHash
	c.lastTime = c.now()
	c.lastHash = hash
	c.mu.Unlock()

	return Result{
		Captured: true,
		Hash:     hash,
		Changed:  changed,
		Width:    frame.Width,
		Height:   frame.Height,
		Channels: frame.Channels,
	}, frame
}

// LastHash returns the content hash of the most recent accepted capture.
func (c *Coordinator) LastHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHash
}

// Scrub zeroes a frame buffer in place. Call it once analysis is done so
// screen content does not linger in memory.
func Scrub(frame *Frame) {
	if frame == nil {
		return
	}
	for i := range frame.Data {
		frame.Data[i] = 0
	}
	frame.Data = nil
}
