package migrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eleven-am/recipe-api/internal/logger"
)

const (
	MsgWaiting     = "Waiting for database..."
	MsgUnavailable = "Database unavailable, waiting 1 second..."
	MsgAvailable   = "Database available!"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitOptions tunes WaitForDB
type WaitOptions struct {
	// Interval between attempts, one second when zero
	Interval time.Duration
	// Out receives the progress lines
	Out io.Writer
}

// WaitForDB pings until the database answers or ctx ends. Every failed
// attempt is reported and retried after the interval.
func WaitForDB(ctx context.Context, db Pinger, opts WaitOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	fmt.Fprintln(opts.Out, MsgWaiting)

	attempts := 0
	for {
		attempts++
		err := db.PingContext(ctx)
		if err == nil {
			fmt.Fprintln(opts.Out, MsgAvailable)
			logger.DB().WithField("attempts", attempts).Debug("database reachable")
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("gave up waiting for database after %d attempts: %w", attempts, err)
		}

		logger.DB().WithField("error", err.Error()).Debug("database ping failed")
		fmt.Fprintln(opts.Out, MsgUnavailable)

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("gave up waiting for database after %d attempts: %w", attempts, ctx.Err())
		case <-timer.C:
		}
	}
}
