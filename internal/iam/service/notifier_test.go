package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingMailer holds deliveries until released, to fill the queue.
type blockingMailer struct {
	release chan struct{}
}

func (m *blockingMailer) SendWelcomeEmail(ctx context.Context, to, fullName string) error {
	<-m.release
	return nil
}

func (m *blockingMailer) SendPasswordResetEmail(ctx context.Context, to, fullName, code string) error {
	<-m.release
	return nil
}

func TestNotifierDeliversQueuedJobs(t *testing.T) {
	mailer := newRecordingMailer()
	n := &Notifier{Mailer: mailer, Logger: slog.Default()}
	n.Start()

	n.SubmitWelcome("a@example.com", "A")
	n.SubmitReset("b@example.com", "B", "123456")

	select {
	case name := <-mailer.welcomes:
		require.Equal(t, "A", name)
	case <-time.After(5 * time.Second):
		t.Fatal("welcome email not delivered")
	}
	select {
	case code := <-mailer.resets:
		require.Equal(t, "123456", code)
	case <-time.After(5 * time.Second):
		t.Fatal("reset email not delivered")
	}

	// Stop drains before returning; nothing left to deliver here.
	n.Stop()
}

func TestNotifierSubmitAfterStop(t *testing.T) {
	mailer := newRecordingMailer()
	n := &Notifier{Mailer: mailer, Logger: slog.Default()}
	n.Start()
	n.Stop()

	// Late submissions are dropped, never delivered, and never panic.
	n.SubmitWelcome("a@example.com", "A")
	n.SubmitReset("b@example.com", "B", "123456")

	select {
	case <-mailer.welcomes:
		t.Fatal("welcome delivered after stop")
	case <-mailer.resets:
		t.Fatal("reset delivered after stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifierDropsWhenSaturated(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{})}
	n := &Notifier{Mailer: mailer, Logger: slog.Default()}
	n.Start()

	// Fill the workers plus the whole queue, then push more. The extra
	// submissions must return immediately instead of blocking the caller.
	total := notifierQueueSize + notifierWorkers + 20

	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			n.SubmitWelcome("x@example.com", "X")
		}
		close(done)
	}()

	select {
	case <-done:
		// Submission never blocked.
	case <-time.After(5 * time.Second):
		t.Fatal("submit blocked on a saturated queue")
	}

	close(mailer.release)
	n.Stop()
}
