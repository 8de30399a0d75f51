package convert

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Outcome classifies a bounded routine run.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTimedOut
	OutcomeFailed
)

// Result carries the outcome of RunWithDeadline. Err is set only for
// OutcomeFailed.
type Result struct {
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// RunWithDeadline executes the routine in its own goroutine and waits up
// to deadline for it to finish. A routine that is still running when the
// deadline elapses is abandoned: its context is cancelled so cooperative
// routines stop, but the caller regains control immediately either way.
// Panics inside the routine are contained and reported as failures.
//
// Safe for concurrent use; every invocation has its own timer, channel
// and paths.
func RunWithDeadline(ctx context.Context, r Routine, inputPath, outputPath string, deadline time.Duration) Result {
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("converter panic: %v", p)
			}
		}()
		done <- r.Convert(runCtx, inputPath, outputPath)
	}()

	select {
	case err := <-done:
		if err != nil {
			// A routine that aborted because the deadline context fired
			// is a timeout, not a converter failure, regardless of which
			// channel the select saw first.
			if runCtx.Err() == context.DeadlineExceeded && errors.Is(err, context.DeadlineExceeded) {
				return Result{Outcome: OutcomeTimedOut, Elapsed: time.Since(start)}
			}
			return Result{Outcome: OutcomeFailed, Err: err, Elapsed: time.Since(start)}
		}
		return Result{Outcome: OutcomeOK, Elapsed: time.Since(start)}
	case <-runCtx.Done():
		elapsed := time.Since(start)
		if runCtx.Err() == context.DeadlineExceeded {
			return Result{Outcome: OutcomeTimedOut, Elapsed: elapsed}
		}
		// Parent context cancelled, e.g. the client went away.
		return Result{Outcome: OutcomeFailed, Err: runCtx.Err(), Elapsed: elapsed}
	}
}
