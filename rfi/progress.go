package rfi

import "sync/atomic"

// ProgressListener receives progress reports from an executing
// strategy and exposes the cooperative cancellation check consulted at
// block boundaries. Implementations must be safe for use from the
// goroutine running the strategy.
type ProgressListener interface {
	// OnStartAction is called before each action executes, with the
	// action's name; calls arrive in depth-first order.
	OnStartAction(name string)
	// OnInfo receives informational messages from actions.
	OnInfo(message string)
	// OnError receives the fatal error of a run, if any.
	OnError(err error)
	// Cancelled reports whether the run should stop at the next block
	// boundary.
	Cancelled() bool
}

// NopListener ignores all reports and never cancels.
type NopListener struct{}

func (NopListener) OnStartAction(string) {}
func (NopListener) OnInfo(string)        {}
func (NopListener) OnError(error)        {}
func (NopListener) Cancelled() bool      { return false }

// CancelListener is a ProgressListener with an atomic cancellation
// flag. Embed or wrap it to add reporting behavior.
type CancelListener struct {
	cancelled atomic.Bool
}

// Cancel requests cancellation; the running strategy stops at the next
// block boundary, leaving the contaminated mask in its current state.
func (l *CancelListener) Cancel() { l.cancelled.Store(true) }

func (l *CancelListener) OnStartAction(string) {}
func (l *CancelListener) OnInfo(string)        {}
func (l *CancelListener) OnError(error)        {}
func (l *CancelListener) Cancelled() bool      { return l.cancelled.Load() }
