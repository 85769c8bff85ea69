package engine

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/parameter"
	"github.com/lixenwraith/boltfx/status"
)

// Scheduler couples one owning context with at most one background worker
// Owner operations run in submission order when the owner calls DrainOwnerQueue
// Background tasks run in submission order on a single worker goroutine
// With background dispatch disabled every submission runs inline on the caller
type Scheduler struct {
	background       bool
	waitTimeout      time.Duration
	terminateTimeout time.Duration
	pollInterval     time.Duration
	workerPoll       time.Duration

	owner   ownerQueue
	bg      *backgroundQueue
	signals *signalPool

	ctx    context.Context
	cancel context.CancelFunc

	// Control
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	running     atomic.Bool
	terminating atomic.Bool
	draining    atomic.Bool

	// Cached metric pointers
	statOwnerOps     *atomic.Int64
	statBackground   *atomic.Int64
	statFaults       *atomic.Int64
	statWaitTimeouts *atomic.Int64
	statOwnerPeak    *status.AtomicFloat
	statRunning      *atomic.Bool
	statTerminating  *atomic.Bool
}

// NewScheduler creates a scheduler from cfg, reg may be nil
func NewScheduler(cfg parameter.SchedulerConfig, reg *status.Registry) *Scheduler {
	if reg == nil {
		reg = status.NewRegistry()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		background:       cfg.Background,
		waitTimeout:      cfg.WaitTimeoutDuration(),
		terminateTimeout: cfg.TerminateTimeoutDuration(),
		pollInterval:     cfg.PollIntervalDuration(),
		workerPoll:       parameter.BackgroundPollTimeout,
		bg:               newBackgroundQueue(),
		signals:          newSignalPool(parameter.SignalPoolSize),
		stopChan:         make(chan struct{}),
		statOwnerOps:     reg.Ints.Get("scheduler.owner_ops"),
		statBackground:   reg.Ints.Get("scheduler.background_tasks"),
		statFaults:       reg.Ints.Get("scheduler.faults"),
		statWaitTimeouts: reg.Ints.Get("scheduler.wait_timeouts"),
		statOwnerPeak:    reg.Floats.Get("scheduler.owner_queue_peak"),
		statRunning:      reg.Bools.Get("scheduler.running"),
		statTerminating:  reg.Bools.Get("scheduler.terminating"),
	}
	// Worker context carries the background marker
	s.ctx = context.WithValue(ctx, backgroundKey{}, s)
	s.cancel = cancel

	if s.waitTimeout <= 0 {
		s.waitTimeout = parameter.WaitTimeout
	}
	if s.terminateTimeout <= 0 {
		s.terminateTimeout = parameter.TerminateTimeout
	}
	if s.pollInterval <= 0 {
		s.pollInterval = parameter.TerminatePollInterval
	}
	return s
}

// Start launches the background worker when background dispatch is enabled
func (s *Scheduler) Start() {
	if !s.background || s.terminating.Load() {
		return
	}
	if s.running.CompareAndSwap(false, true) {
		s.statRunning.Store(true)
		s.wg.Add(1)
		core.Go(s.workerLoop)
	}
}

// Background reports whether cross-context dispatch is active
func (s *Scheduler) Background() bool {
	return s.background && s.running.Load()
}

// Terminating reports whether Terminate has been called
func (s *Scheduler) Terminating() bool {
	return s.terminating.Load()
}

// OnBackground reports whether ctx belongs to this scheduler's background worker
func (s *Scheduler) OnBackground(ctx context.Context) bool {
	return s.onBackground(ctx)
}

// SubmitToOwner schedules op on the owning context
// Calls not made from the background worker are treated as owner calls and run op inline,
// as does every call when background dispatch is disabled
// With wait set the background caller blocks until op ran or the wait timeout elapsed
// Returns false without running op once terminating
func (s *Scheduler) SubmitToOwner(ctx context.Context, op Op, wait bool) bool {
	if s.terminating.Load() {
		return false
	}

	if !s.Background() || !s.onBackground(ctx) {
		s.runOwner(op, false, nil)
		return true
	}

	if !wait {
		s.pushOwner(ownerItem{op: op})
		return true
	}

	sig := s.signals.acquire()
	s.pushOwner(ownerItem{op: op, done: sig})

	timer := time.NewTimer(s.waitTimeout)
	defer timer.Stop()

	select {
	case <-sig.ch:
		s.signals.release(sig)
	case <-timer.C:
		// Signal stays with the queued item and is dropped, never reused
		s.statWaitTimeouts.Add(1)
		core.Logger().Warn("scheduler: owner wait timed out", "timeout", s.waitTimeout)
	case <-ctx.Done():
		core.Logger().Debug("scheduler: owner wait cancelled", "error", ctx.Err())
	}
	return true
}

// SubmitToBackground schedules task on the background worker
// Runs task inline when background dispatch is disabled, returns false once terminating
func (s *Scheduler) SubmitToBackground(task Task) bool {
	if s.terminating.Load() {
		return false
	}

	if !s.Background() {
		s.runBackground(context.Background(), task)
		return true
	}

	s.bg.push(task)
	return true
}

// DrainOwnerQueue runs every owner operation queued so far, called once per tick by the owner
// Returns the number of operations executed
func (s *Scheduler) DrainOwnerQueue() int {
	return s.drain(false)
}

// Pending returns queued owner operations and background tasks
func (s *Scheduler) Pending() (owner, background int) {
	return s.owner.len(), s.bg.len()
}

// BackgroundIdle reports an empty background queue with no task running
func (s *Scheduler) BackgroundIdle() bool {
	return s.bg.idle()
}

// Terminate rejects further submissions, then drains both queues until empty or the terminate timeout
// teardown is forwarded to every owner operation drained here
// Returns false when the timeout hit, the worker may then still be running a task
func (s *Scheduler) Terminate(teardown bool) bool {
	if !s.terminating.CompareAndSwap(false, true) {
		return s.bg.idle()
	}
	s.statTerminating.Store(true)

	start := time.Now()
	drained := false
	for {
		s.drain(teardown)
		if s.bg.idle() && s.owner.len() == 0 {
			drained = true
			break
		}
		if time.Since(start) >= s.terminateTimeout {
			break
		}
		time.Sleep(s.pollInterval)
	}

	if !drained {
		owner, bg := s.Pending()
		core.Logger().Warn("scheduler: terminate timed out",
			"timeout", s.terminateTimeout, "owner_pending", owner, "background_pending", bg)
	}

	s.stop(drained)
	return drained
}

// stop halts the worker, only joining it when the queues drained
func (s *Scheduler) stop(join bool) {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.running.CompareAndSwap(true, false) {
			close(s.stopChan)
			if join {
				s.wg.Wait()
			}
		}
		s.statRunning.Store(false)
	})
}

func (s *Scheduler) pushOwner(item ownerItem) {
	n := s.owner.push(item)
	s.statOwnerPeak.StoreMax(float64(n))
}

func (s *Scheduler) drain(teardown bool) int {
	// Reentrant drains from inside an owner op are ignored
	if !s.draining.CompareAndSwap(false, true) {
		return 0
	}
	defer s.draining.Store(false)

	batch := s.owner.take()
	for _, item := range batch {
		s.runOwner(item.op, teardown, item.done)
	}
	s.owner.recycle(batch)
	return len(batch)
}

// runOwner executes op and always signals done, panics are logged
func (s *Scheduler) runOwner(op Op, teardown bool, done *signal) {
	defer func() {
		if r := recover(); r != nil {
			s.statFaults.Add(1)
			err := &OpError{Queue: "owner", Value: r, Stack: debug.Stack()}
			core.Logger().Error("scheduler: owner operation failed", "error", err, "stack", string(err.Stack))
		}
		if done != nil {
			done.notify()
		}
	}()
	s.statOwnerOps.Add(1)
	op(teardown)
}

// runBackground executes task, a panic is re-surfaced on the owner queue as a log operation
func (s *Scheduler) runBackground(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.statFaults.Add(1)
			err := &OpError{Queue: "background", Value: r, Stack: debug.Stack()}
			report := func(bool) {
				core.Logger().Error("scheduler: background task failed", "error", err, "stack", string(err.Stack))
			}
			if s.Background() && s.onBackground(ctx) {
				s.pushOwner(ownerItem{op: report})
			} else {
				report(false)
			}
		}
	}()
	s.statBackground.Add(1)
	task(ctx)
}

func (s *Scheduler) workerLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		task, ok := s.bg.pop(s.stopChan, s.workerPoll)
		if !ok {
			continue
		}
		s.runBackground(s.ctx, task)
		s.bg.finish()
	}
}
