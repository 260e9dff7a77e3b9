package service

import (
	"context"
	"errors"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/internal/bookings/repository"
	"rentals/pkg/clock"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"time"

	"github.com/google/uuid"
)

const (
	lockInitialBackoff = 20 * time.Millisecond
	lockMaxBackoff     = 200 * time.Millisecond
	lockReleaseTimeout = 5 * time.Second

	// Work under a lease stops this fraction of the TTL before the lock
	// expires.
	leaseMarginDivisor = 5
)

// productLocker serializes admissions per product through advisory lock
// documents. Different products never contend.
type productLocker struct {
	repo  repository.BookingLockRepository
	clock clock.Clock
	ttl   time.Duration
	wait  time.Duration
	log   *logger.Logger
}

func newProductLocker(repo repository.BookingLockRepository, clk clock.Clock, ttl, wait time.Duration, log *logger.Logger) *productLocker {
	return &productLocker{
		repo:  repo,
		clock: clk,
		ttl:   ttl,
		wait:  wait,
		log:   log,
	}
}

func lockIDFor(productID string) string {
	return "booking_lock_" + productID
}

// lease is a held product lock. Work done under it must finish before the
// lease deadline, and Fence must succeed inside the same transaction as
// that work for the work to count.
type lease struct {
	locker    *productLocker
	productID string
	lockID    string
	owner     string
	deadline  time.Time
	release   func()
}

// Acquire blocks until the product lock is taken or the wait budget is
// spent. The returned lease must always be released.
func (l *productLocker) Acquire(ctx context.Context, productID string) (*lease, error) {
	lockID := lockIDFor(productID)
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	backoff := lockInitialBackoff
	for {
		now := l.clock.Now()
		acquiredAt := time.Now()
		err := l.repo.Create(waitCtx, &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		})
		if err == nil {
			return &lease{
				locker:    l,
				productID: productID,
				lockID:    lockID,
				owner:     owner,
				deadline:  acquiredAt.Add(l.ttl - l.ttl/leaseMarginDivisor),
				release:   l.releaser(ctx, lockID, owner),
			}, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, l.busy(productID)
			}
			return nil, apperrors.StoreFailure("Failed to acquire booking lock", err)
		}

		reclaimed, err := l.repo.DeleteExpired(waitCtx, lockID, now)
		if err != nil && waitCtx.Err() == nil {
			return nil, apperrors.StoreFailure("Failed to reclaim booking lock", err)
		}
		if reclaimed {
			l.log.Warn("Reclaimed expired booking lock", "product_id", productID)
			continue
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, apperrors.Timeout("Request cancelled while waiting for booking lock")
			}
			return nil, l.busy(productID)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, lockMaxBackoff)
	}
}

func (l *productLocker) busy(productID string) error {
	l.log.Warn("Timed out waiting for booking lock", "product_id", productID, "wait", l.wait)
	return apperrors.Conflict("Product is being booked by another request, please retry")
}

func (l *productLocker) releaser(ctx context.Context, lockID, owner string) func() {
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()

		if err := l.repo.Delete(releaseCtx, lockID, owner); err != nil {
			l.log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
		}
	}
}

// Bound returns ctx cut off at the lease deadline, before the lock can be
// reclaimed by another request.
func (ls *lease) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithDeadline(ctx, ls.deadline)
}

// Fence rewrites the lock document under the caller's transaction. A
// reclaimer racing it either makes the fence fail or conflicts with the
// transaction, so two holders never both commit.
func (ls *lease) Fence(ctx context.Context) error {
	l := ls.locker
	err := l.repo.Extend(ctx, ls.lockID, ls.owner, l.clock.Now().Add(l.ttl))
	if err == nil {
		return nil
	}
	if errors.Is(err, bookingserrors.ErrLockLost) {
		l.log.Warn("Booking lock lost before commit", "product_id", ls.productID)
		return apperrors.Conflict("Product is being booked by another request, please retry")
	}
	return apperrors.StoreFailure("Failed to confirm booking lock", err)
}

// Expired reports whether the lease deadline has passed.
func (ls *lease) Expired() bool {
	return !time.Now().Before(ls.deadline)
}

func (ls *lease) Release() {
	ls.release()
}
