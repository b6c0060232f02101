package database

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
)

const (
	maxRetries = 20
	baseDelay  = 10 * time.Millisecond
	maxDelay   = 250 * time.Millisecond
)

// isRetryableError checks if the error is a retryable SQLite lock conflict
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// retryDelay grows linearly up to maxDelay and adds up to 50% jitter
func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(delay)/2+1))
}

// retryableWrite runs fn until it succeeds, fails with a non-lock error,
// runs out of attempts or ctx is done. fn must be safe to repeat, which holds
// for a whole transaction that rolled back.
func retryableWrite(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if !isRetryableError(err) {
			return err
		}
		if attempt == maxRetries-1 {
			break
		}
		logging.Warn(ctx, "sqlite locked, retrying",
			slog.String("op", what),
			slog.Int("attempt", attempt+1),
			slog.Any("error", errs.Loggable(err)))

		timer := time.NewTimer(retryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return errs.Wrapf(err, "%s: gave up after %d attempts", what, maxRetries)
}
