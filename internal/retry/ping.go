// Package retry waits for a backing service to answer a ping, backing off
// exponentially between attempts. The postgres and redis connectors share it.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
)

// Policy bounds a ping loop.
type Policy struct {
	Total         time.Duration // total time allowed for attempts (ex: 30s)
	Initial       time.Duration // first wait between attempts, doubled each time
	MaxWait       time.Duration // cap on the wait between attempts
	PingTimeout   time.Duration // timeout for one attempt
	WarnThreshold int           // attempts logged as warnings before escalating to errors
}

// Validate reports the first non-positive duration.
func (p Policy) Validate() error {
	switch {
	case p.Total <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", p.Total)
	case p.Initial <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", p.Initial)
	case p.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", p.MaxWait)
	case p.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", p.PingTimeout)
	case p.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", p.WarnThreshold)
	}
	return nil
}

// PingFunc is one connection attempt.
type PingFunc func(ctx context.Context) error

// Ping calls ping until it succeeds or p.Total elapses. backend names the
// service in logs and errors ("postgres", "redis"); target is the address
// shown in logs and may be empty when it carries credentials.
func Ping(ctx context.Context, backend, target string, p Policy, ping PingFunc, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, p.Total)
	defer cancel()

	l := attemptLogger{log: log, backend: backend, target: target}
	l.start(p.Total)

	start := time.Now()
	wait := p.Initial

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, p.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			l.success(attempt, time.Since(start))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.timeout(attempt, p.Total, err)
			return fmt.Errorf("%s unavailable after %d attempts (timeout: %v): %w",
				backend, attempt, p.Total, err)

		case <-timer.C:
			l.retry(attempt, timeLeft(ctx), wait, p.WarnThreshold, err)
			wait *= 2
			if wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}

type attemptLogger struct {
	log     logger.Logger
	backend string
	target  string
}

func (a attemptLogger) fields(extra ...logger.Field) []logger.Field {
	fields := make([]logger.Field, 0, len(extra)+1)
	if a.target != "" {
		fields = append(fields, logger.String("addr", a.target))
	}
	return append(fields, extra...)
}

func (a attemptLogger) start(timeout time.Duration) {
	a.log.Info("connecting to "+a.backend, a.fields(logger.Duration("timeout", timeout))...)
}

func (a attemptLogger) success(attempts int, elapsed time.Duration) {
	if attempts > 1 {
		a.log.Warn("connected to "+a.backend+" after retry",
			a.fields(logger.Int("attempts", attempts), logger.Duration("elapsed", elapsed))...)
		return
	}
	a.log.Info("connected to "+a.backend, a.fields()...)
}

func (a attemptLogger) timeout(attempts int, timeout time.Duration, err error) {
	a.log.Error(a.backend+" unavailable - failed to connect after timeout",
		a.fields(logger.Int("attempts", attempts), logger.Duration("timeout", timeout), logger.Error(err))...)
}

func (a attemptLogger) retry(attempt int, remaining, next time.Duration, warnThreshold int, err error) {
	fields := a.fields(
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", next),
		logger.Error(err))

	switch {
	case remaining < 10*time.Second:
		a.log.Error(a.backend+" still down - retrying but timeout approaching",
			append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= warnThreshold:
		a.log.Warn(a.backend+" connection failed, retrying", fields...)
	default:
		a.log.Error(a.backend+" still unavailable - connection attempts failing", fields...)
	}
}
