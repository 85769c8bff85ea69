package engine

import (
	"context"
	"fmt"
)

// Op is an operation bound to the owning context
// teardown is true when the scheduler is terminating and scene mutation should be skipped
type Op func(teardown bool)

// Task is an operation bound to the background context
// ctx identifies the background worker, passing it to SubmitToOwner enables cross-context dispatch
type Task func(ctx context.Context)

// OpError wraps a panic recovered from a queued operation
type OpError struct {
	Queue string // "owner" or "background"
	Value any
	Stack []byte
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s operation panicked: %v", e.Queue, e.Value)
}

// Unwrap exposes the panic value when it is an error
func (e *OpError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type backgroundKey struct{}

// onBackground reports whether ctx was issued by s's background worker
func (s *Scheduler) onBackground(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(backgroundKey{}).(*Scheduler)
	return owner == s
}
