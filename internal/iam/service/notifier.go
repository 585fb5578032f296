package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/mail"
	"github.com/laptruong-hub/iam-service/internal/iam/obs"
)

const (
	notifierQueueSize   = 100
	notifierWorkers     = 4
	notifierSendTimeout = 30 * time.Second
)

type notification struct {
	kind     string // "welcome" | "reset"
	to       string
	fullName string
	code     string
}

// Notifier delivers account emails off the request path through a bounded
// worker pool. Submission never blocks: when the queue is full the job is
// dropped and counted, and the triggering operation still succeeds. Email
// is best-effort by contract.
type Notifier struct {
	Mailer mail.Mailer
	Logger *slog.Logger

	queue chan notification
	wg    sync.WaitGroup
	stop  chan struct{}
	once  sync.Once
}

// Start launches the worker pool. Call once before accepting traffic.
func (n *Notifier) Start() {
	n.queue = make(chan notification, notifierQueueSize)
	n.stop = make(chan struct{})

	for i := 0; i < notifierWorkers; i++ {
		n.wg.Add(1)
		go n.worker()
	}

	n.Logger.Info("notifier started",
		slog.Int("workers", notifierWorkers),
		slog.Int("queue_size", notifierQueueSize),
	)
}

// Stop drains in-flight work and shuts the pool down. Jobs still queued are
// delivered before Stop returns; jobs submitted after Stop are dropped. The
// queue channel is never closed, so a submit racing Stop cannot panic.
func (n *Notifier) Stop() {
	n.once.Do(func() {
		close(n.stop)
		n.wg.Wait()
		n.Logger.Info("notifier stopped")
	})
}

// SubmitWelcome queues a welcome email. Non-blocking.
func (n *Notifier) SubmitWelcome(to, fullName string) {
	n.submit(notification{kind: "welcome", to: to, fullName: fullName})
}

// SubmitReset queues a password reset code email. Non-blocking.
func (n *Notifier) SubmitReset(to, fullName, code string) {
	n.submit(notification{kind: "reset", to: to, fullName: fullName, code: code})
}

func (n *Notifier) submit(job notification) {
	select {
	case <-n.stop:
		obs.NotificationsDroppedTotal.Inc()
		n.Logger.Warn("notifier stopped, dropping job",
			slog.String("kind", job.kind),
			slog.String("to", job.to),
		)
		return
	default:
	}

	select {
	case n.queue <- job:
	default:
		obs.NotificationsDroppedTotal.Inc()
		n.Logger.Warn("notification queue full, dropping job",
			slog.String("kind", job.kind),
			slog.String("to", job.to),
		)
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()

	for {
		select {
		case job := <-n.queue:
			n.deliver(job)
		case <-n.stop:
			// Drain whatever was queued before the stop signal.
			for {
				select {
				case job := <-n.queue:
					n.deliver(job)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(job notification) {
	ctx, cancel := context.WithTimeout(context.Background(), notifierSendTimeout)
	defer cancel()

	var err error
	switch job.kind {
	case "welcome":
		err = n.Mailer.SendWelcomeEmail(ctx, job.to, job.fullName)
	case "reset":
		err = n.Mailer.SendPasswordResetEmail(ctx, job.to, job.fullName, job.code)
	}

	if err != nil {
		n.Logger.Error("notification delivery failed",
			slog.String("kind", job.kind),
			slog.String("to", job.to),
			slog.Any("error", err),
		)
	}
}
