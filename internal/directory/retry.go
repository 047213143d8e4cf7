// Package directory wraps the read-only collaborator directories (bookings,
// teams) with bounded retries. Only reads pass through here; nothing in this
// package ever retries a write.
package directory

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a failed lookup is repeated.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
}

// DefaultRetryPolicy is three attempts with a doubling delay starting at 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		MaxDelay: time.Second,
		Clock:    clock.WallClock,
	}
}

// isFatal reports errors that another attempt cannot fix.
func isFatal(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// call runs fn under the policy and returns fn's own last error, not the
// retry package's wrapper, so callers can keep matching with errors.Is.
func (p RetryPolicy) call(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	var lastErr error
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			lastErr = fn()
			return lastErr
		},
		IsFatalError: isFatal,
		NotifyFunc: func(err error, attempt int) {
			logger.Debug("directory lookup failed",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		},
		Attempts:    attempts,
		Delay:       delay,
		MaxDelay:    p.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// --- Booking directory ---

type retryingBookingDirectory struct {
	next   repository.BookingDirectory
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingBookingDirectory retries failed booking lookups under policy.
func NewRetryingBookingDirectory(next repository.BookingDirectory, policy RetryPolicy, logger *zap.Logger) repository.BookingDirectory {
	return &retryingBookingDirectory{next: next, policy: policy, logger: logger}
}

func (d *retryingBookingDirectory) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	var booking *domain.Booking
	err := d.policy.call(ctx, d.logger, "booking.get", func() error {
		var err error
		booking, err = d.next.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (d *retryingBookingDirectory) ListByTeam(ctx context.Context, teamID primitive.ObjectID, purpose domain.BookingPurpose, from time.Time) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := d.policy.call(ctx, d.logger, "booking.listByTeam", func() error {
		var err error
		bookings, err = d.next.ListByTeam(ctx, teamID, purpose, from)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// --- Team directory ---

type retryingTeamDirectory struct {
	next   repository.TeamDirectory
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingTeamDirectory retries failed team lookups under policy.
func NewRetryingTeamDirectory(next repository.TeamDirectory, policy RetryPolicy, logger *zap.Logger) repository.TeamDirectory {
	return &retryingTeamDirectory{next: next, policy: policy, logger: logger}
}

func (d *retryingTeamDirectory) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Team, error) {
	var team *domain.Team
	err := d.policy.call(ctx, d.logger, "team.get", func() error {
		var err error
		team, err = d.next.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (d *retryingTeamDirectory) ListIDsBySportTypes(ctx context.Context, sportTypes []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	err := d.policy.call(ctx, d.logger, "team.listBySport", func() error {
		var err error
		ids, err = d.next.ListIDsBySportTypes(ctx, sportTypes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
