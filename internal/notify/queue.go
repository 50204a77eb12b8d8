package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Delivery outcomes reported to the queue observer.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Queue hands notifications to a Dispatcher on a background goroutine.
type Queue struct {
	dispatcher Dispatcher
	jobs       chan Notification
	timeout    time.Duration
	log        *logrus.Entry
	observe    func(result string)

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	start   sync.Once
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithObserver registers fn to be called with the outcome of every
// notification.
func WithObserver(fn func(result string)) QueueOption {
	return func(q *Queue) { q.observe = fn }
}

// NewQueue creates a queue holding up to size pending notifications. Each
// delivery runs with its own timeout.
func NewQueue(d Dispatcher, size int, timeout time.Duration, log *logrus.Entry, opts ...QueueOption) *Queue {
	if size <= 0 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	q := &Queue{
		dispatcher: d,
		jobs:       make(chan Notification, size),
		timeout:    timeout,
		log:        log,
		observe:    func(string) {},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker. Calling it more than once has no effect.
func (q *Queue) Start() {
	q.start.Do(func() {
		q.wg.Add(1)
		go q.run()
	})
}

// Enqueue schedules n for delivery without blocking. It reports whether the
// notification was accepted.
func (q *Queue) Enqueue(n Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		q.drop(n, "queue stopped")
		return false
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	select {
	case q.jobs <- n:
		return true
	default:
		q.drop(n, "queue full")
		return false
	}
}

// Stop refuses new notifications, delivers the pending ones and waits for
// the worker to exit or ctx to end.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for n := range q.jobs {
		q.deliver(n)
	}
}

func (q *Queue) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.log.WithField("email", n.Email).WithField("panic", fmt.Sprint(r)).Error("notification dispatcher panicked")
			q.observe(ResultFailed)
		}
	}()

	if err := q.dispatcher.Dispatch(ctx, n); err != nil {
		q.log.WithError(err).WithField("email", n.Email).Error("notification delivery failed")
		q.observe(ResultFailed)
		return
	}
	q.log.WithField("email", n.Email).Debug("notification delivered")
	q.observe(ResultSent)
}

func (q *Queue) drop(n Notification, reason string) {
	q.log.WithFields(logrus.Fields{
		"email":  n.Email,
		"reason": reason,
	}).Warn("notification dropped")
	q.observe(ResultDropped)
}
