package mailer

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Prober reports whether the network looks reachable. Checked before
// every delivery attempt so the worker does not burn attempts while
// offline.
type Prober func() bool

// NetworkProber dials addr (e.g. "8.8.8.8:53") with the given timeout.
func NetworkProber(addr string, timeout time.Duration) Prober {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// Dispatcher delivers email jobs, retrying forever on transport
// failures. No retry cap or dead-letter path; a job either sends or
// outlives the process.
type Dispatcher struct {
	Sender  Sender
	Probe   Prober
	Backoff time.Duration
	Logger  *logrus.Logger
}

func NewDispatcher(sender Sender, probe Prober, backoff time.Duration, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{Sender: sender, Probe: probe, Backoff: backoff, Logger: logger}
}

// Deliver blocks until the job is sent or ctx is done. Returns ctx.Err()
// only on cancellation; transport errors are retried, never returned.
func (d *Dispatcher) Deliver(ctx context.Context, job EmailJob) error {
	for {
		if d.Probe != nil && !d.Probe() {
			if d.Logger != nil {
				d.Logger.WithField("to", job.To).Warn("network unreachable, retrying email delivery")
			}
			if err := sleepCtx(ctx, d.Backoff); err != nil {
				return err
			}
			continue
		}
		err := d.Sender.Send(ctx, job.To, job.Subject, job.Body)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.Logger != nil {
			d.Logger.WithError(err).WithField("to", job.To).Warn("email send failed, retrying")
		}
		if err := sleepCtx(ctx, d.Backoff); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
