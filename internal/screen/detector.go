package screen

import (
	"context"
	"time"

	"github.com/xcervi19/orakulum/internal/logging"
)

// Outcome is the terminal state of one completion wait
type Outcome int

const (
	// OutcomeCompleted means the busy indicator disappeared
	OutcomeCompleted Outcome = iota
	// OutcomeTimedOut means the indicator was still present at the deadline.
	// Callers proceed as if complete; a truncated response is preferable to
	// aborting the whole traversal.
	OutcomeTimedOut
	// OutcomeCancelled means the surrounding run was cancelled mid-wait
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// BusyChecker answers whether the busy indicator is currently visible
type BusyChecker interface {
	Visible(name string, threshold float64) bool
}

// Detector infers completion of the remote generation from the absence of a
// busy-indicator element. The remote system offers no completion callback,
// only a transient visual cue while working, so completion is detected by
// the cue disappearing.
type Detector struct {
	checker   BusyChecker
	busyName  string
	threshold float64

	// The indicator may not have appeared yet immediately after submission;
	// an idle read at t=0 would short-circuit the wait on a response that
	// has not even started. The grace delay absorbs that window.
	grace    time.Duration
	interval time.Duration
	maxWait  time.Duration

	log *logging.Logger
}

// NewDetector creates a detector polling the named busy element
func NewDetector(checker BusyChecker, busyName string, threshold float64, grace, interval, maxWait time.Duration) *Detector {
	return &Detector{
		checker:   checker,
		busyName:  busyName,
		threshold: threshold,
		grace:     grace,
		interval:  interval,
		maxWait:   maxWait,
		log:       logging.NewLogger("detector"),
	}
}

// Await blocks until the busy indicator disappears, the deadline passes, or
// ctx is cancelled. The wait is a cooperative poll loop with a sleep between
// polls, never a busy-spin.
func (d *Detector) Await(ctx context.Context) Outcome {
	deadline := time.Now().Add(d.maxWait)
	d.log.Debugf("awaiting completion (grace=%s interval=%s max=%s)", d.grace, d.interval, d.maxWait)

	if !sleepCtx(ctx, d.grace) {
		return OutcomeCancelled
	}

	for {
		if !d.checker.Visible(d.busyName, d.threshold) {
			d.log.Debug("busy indicator gone, generation complete")
			return OutcomeCompleted
		}

		if time.Now().After(deadline) {
			d.log.Warnf("busy indicator still present after %s, proceeding best-effort", d.maxWait)
			return OutcomeTimedOut
		}

		if !sleepCtx(ctx, d.interval) {
			return OutcomeCancelled
		}
	}
}

// sleepCtx sleeps for dur unless ctx is cancelled first; returns false on
// cancellation
func sleepCtx(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
