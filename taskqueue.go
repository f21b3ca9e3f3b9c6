package modhost

import (
	"errors"
	"fmt"
	"sync"
)

// TaskQueue is the single-threaded work queue the engine schedules its
// deferred work and deferred failures on. The engine consumes the queue but
// does not own it: the host drains it once per frame, which runs pending
// tasks on the draining goroutine and re-raises captured failures there so
// they are observable by ordinary error handling at the call site.
type TaskQueue interface {
	// Submit enqueues a unit of work to run on the next drain.
	Submit(task func())

	// Fail records a deferred failure to be re-raised on the next drain.
	Fail(err error)
}

// SerialQueue is the standard TaskQueue implementation: a FIFO of pending
// tasks plus accumulated deferred failures. It is safe for concurrent
// producers; Drain is intended to be called from a single host goroutine.
type SerialQueue struct {
	mu       sync.Mutex
	tasks    []func()
	failures []error
}

// NewSerialQueue creates an empty task queue.
func NewSerialQueue() *SerialQueue {
	return &SerialQueue{}
}

// Submit enqueues a task for the next Drain.
func (q *SerialQueue) Submit(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Fail records a deferred failure for the next Drain.
func (q *SerialQueue) Fail(err error) {
	if err == nil {
		return
	}
	q.mu.Lock()
	q.failures = append(q.failures, err)
	q.mu.Unlock()
}

// Drain runs all currently pending tasks on the caller's goroutine and
// returns the deferred failures joined into a single error. A panic inside
// a task is recovered and converted into a deferred failure rather than
// tearing down the draining goroutine. Tasks submitted while draining run
// on the next Drain.
func (q *SerialQueue) Drain() error {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, task := range tasks {
		q.run(task)
	}

	q.mu.Lock()
	failures := q.failures
	q.failures = nil
	q.mu.Unlock()

	return errors.Join(failures...)
}

// Pending returns the number of tasks waiting for the next Drain.
func (q *SerialQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *SerialQueue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.Fail(fmt.Errorf("task panicked: %v", r))
		}
	}()
	task()
}
