package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/internal/bookings/repository"
	"rentals/internal/bookings/validator"
	"rentals/pkg/clock"
	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"rentals/pkg/validation"
	"sort"
	"sync"
	"time"
)

// EventPublisher delivers booking events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
}

type BookingService interface {
	TryAdmitBooking(ctx context.Context, requesterID string, req *model.BookingRequest) (*model.BookingDetails, error)
	TryCancelBooking(ctx context.Context, bookingID, requesterID string) error
	GetBooking(ctx context.Context, bookingID, requesterID string) (*model.BookingDetails, error)
	ListMyBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.BookingDetails, int64, error)
	ListProductAvailability(ctx context.Context, productID string) ([]*model.BookedInterval, error)
}

// Dependencies are the collaborators of the booking service.
type Dependencies struct {
	Repo      repository.BookingRepository
	LockRepo  repository.BookingLockRepository
	Products  repository.ProductReader
	Users     repository.UserReader
	Publisher EventPublisher
	Validator *validator.BookingValidator
	Clock     clock.Clock
}

type bookingService struct {
	repo      repository.BookingRepository
	locks     *productLocker
	products  repository.ProductReader
	users     repository.UserReader
	publisher EventPublisher
	validator *validator.BookingValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(deps Dependencies, cfg *config.Config) BookingService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &bookingService{
		repo:      deps.Repo,
		locks:     newProductLocker(deps.LockRepo, clk, cfg.BookingLockTTL, cfg.BookingLockWait, cfg.Log),
		products:  deps.Products,
		users:     deps.Users,
		publisher: deps.Publisher,
		validator: deps.Validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *bookingService) TryAdmitBooking(ctx context.Context, requesterID string, req *model.BookingRequest) (*model.BookingDetails, error) {
	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	if !req.From.Before(req.To) {
		return nil, apperrors.InvalidInterval("Booking start must be before its end")
	}
	if !req.From.After(now) {
		return nil, apperrors.InvalidInterval("Booking must start in the future")
	}

	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.OwnerID == requesterID {
		return nil, apperrors.SelfBookingForbidden("You cannot book your own product")
	}

	booking := &model.Booking{
		ProductID:     product.ID,
		UserID:        requesterID,
		From:          req.From,
		To:            req.To,
		BookingQuery:  req.BookingQuery,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		CreatedAt:     now,
	}

	held, err := s.locks.Acquire(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	leaseCtx, cancel := held.Bound(ctx)
	err = s.repo.ExecuteTransaction(leaseCtx, func(txCtx context.Context) error {
		if err := s.verifyNoOverlap(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.StoreFailure("Failed to create booking", err)
		}
		return held.Fence(txCtx)
	})
	cancel()
	held.Release()
	if err != nil {
		switch {
		case ctx.Err() == nil && held.Expired() && errors.Is(err, context.DeadlineExceeded):
			err = apperrors.Timeout("Booking admission took too long, please retry")
		case !apperrors.IsAppError(err):
			err = apperrors.StoreFailure("Failed to create booking", err)
		}
		s.cfg.Log.Warn("Booking admission rejected",
			"product_id", product.ID,
			"user_id", requesterID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"product_id", booking.ProductID,
		"user_id", booking.UserID,
		"from", booking.From,
		"to", booking.To,
	)
	s.publish(ctx, model.EventBookingCreated, booking, product)

	details := &model.BookingDetails{
		Booking: booking,
		Status:  model.DeriveStatus(booking, now),
		Product: product.Summary(),
	}
	if user, err := s.users.FindUser(ctx, requesterID); err == nil {
		details.User = user.Summary()
	} else {
		s.cfg.Log.Warn("Failed to load booking user summary", "user_id", requesterID, "error", err)
	}
	return details, nil
}

func (s *bookingService) TryCancelBooking(ctx context.Context, bookingID, requesterID string) error {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != requesterID {
		return apperrors.Forbidden("Only the user who made the booking can cancel it")
	}
	if !booking.From.After(s.clock.Now()) {
		return apperrors.TooLateToCancel("Booking has already started")
	}

	if err := s.repo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.StoreFailure("Failed to delete booking", err)
	}

	s.cfg.Log.Info("Booking cancelled successfully", "id", bookingID, "user_id", requesterID)

	product, err := s.products.FindProduct(ctx, booking.ProductID)
	if err != nil {
		s.cfg.Log.Warn("Cancelled booking references a missing product", "id", bookingID, "product_id", booking.ProductID, "error", err)
		product = &model.Product{ID: booking.ProductID}
	}
	s.publish(ctx, model.EventBookingCancelled, booking, product)
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, requesterID string) (*model.BookingDetails, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, apperrors.Forbidden("You can only view your own bookings")
	}

	details := &model.BookingDetails{
		Booking: booking,
		Status:  model.DeriveStatus(booking, s.clock.Now()),
	}

	if product, err := s.products.FindProduct(ctx, booking.ProductID); err == nil {
		details.Product = product.Summary()
	} else if !errors.Is(err, bookingserrors.ErrProductNotFound) {
		return nil, apperrors.StoreFailure("Failed to load booking product", err)
	}

	if user, err := s.users.FindUser(ctx, booking.UserID); err == nil {
		details.User = user.Summary()
	} else if !errors.Is(err, bookingserrors.ErrUserNotFound) {
		return nil, apperrors.StoreFailure("Failed to load booking user", err)
	}

	return details, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.BookingDetails, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, requesterID)
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByUser(ctx, requesterID, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count bookings", "user_id", requesterID, "error", errCount)
		return nil, 0, apperrors.StoreFailure("Failed to count bookings", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", requesterID, "error", errFind)
		return nil, 0, apperrors.StoreFailure("Failed to retrieve bookings", errFind)
	}

	productIDs := make([]string, 0, len(bookings))
	seen := map[string]bool{}
	for _, b := range bookings {
		if !seen[b.ProductID] {
			seen[b.ProductID] = true
			productIDs = append(productIDs, b.ProductID)
		}
	}
	products, err := s.products.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, 0, apperrors.StoreFailure("Failed to load booked products", err)
	}

	now := s.clock.Now()
	result := make([]*model.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		details := &model.BookingDetails{
			Booking: b,
			Status:  model.DeriveStatus(b, now),
		}
		if p, ok := products[b.ProductID]; ok {
			details.Product = p.Summary()
		}
		result = append(result, details)
	}

	return result, count, nil
}

// ListProductAvailability returns the intervals of a product that are not
// completed yet, ordered by start.
func (s *bookingService) ListProductAvailability(ctx context.Context, productID string) ([]*model.BookedInterval, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to retrieve product bookings", err)
	}

	now := s.clock.Now()
	intervals := make([]*model.BookedInterval, 0, len(bookings))
	for _, b := range bookings {
		status := model.DeriveStatus(b, now)
		if status == model.BookingCompleted {
			continue
		}
		intervals = append(intervals, &model.BookedInterval{From: b.From, To: b.To, Status: status})
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].From.Before(intervals[j].From)
	})

	return intervals, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.ProductID = sanitizer.TrimAndNormalize(req.ProductID)
	req.Address = sanitizer.NormalizeAddress(req.Address)
	req.BookingQuery = sanitizer.NormalizeText(req.BookingQuery)
	req.ContactNumber = sanitizer.NormalizePhone(req.ContactNumber, s.cfg.DefaultPhoneRegion)
	// Stored dates keep milliseconds only; checks must see the stored value.
	req.From = req.From.UTC().Truncate(time.Millisecond)
	req.To = req.To.UTC().Truncate(time.Millisecond)
}

func (s *bookingService) validate(req *model.BookingRequest) error {
	err := s.validator.Validate(req)
	if err == nil {
		err = s.validator.ValidateContactNumber(req.ContactNumber)
	}
	if err == nil {
		return nil
	}

	s.cfg.Log.Warn("Booking validation failed", "error", err)
	if errs, ok := validation.AsValidationErrors(err); ok {
		return apperrors.Validation("Booking validation failed", errs.Details())
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

func (s *bookingService) findProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrProductNotFound) {
			return nil, apperrors.NotFoundWithID("Product", productID)
		}
		return nil, apperrors.StoreFailure("Failed to retrieve product", err)
	}
	return product, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.StoreFailure("Failed to retrieve booking", err)
	}
	return booking, nil
}

// verifyNoOverlap scans every booking of the product. The interval is
// closed on both ends, so touching bookings conflict.
func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindByProduct(ctx, booking.ProductID)
	if err != nil {
		return apperrors.StoreFailure("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if model.Overlaps(b.From, b.To, booking.From, booking.To) {
			return apperrors.Conflict(fmt.Sprintf(
				"Product is already booked from %s to %s",
				b.From.Format(time.RFC3339),
				b.To.Format(time.RFC3339),
			)).WithDetails(map[string]any{
				"from": b.From.Format(time.RFC3339),
				"to":   b.To.Format(time.RFC3339),
			})
		}
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, product *model.Product) {
	if s.publisher == nil {
		return
	}

	event := &model.BookingEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		ProductID:   booking.ProductID,
		ProductName: product.Name,
		OwnerID:     product.OwnerID,
		BorrowerID:  booking.UserID,
		From:        booking.From,
		To:          booking.To,
		OccurredAt:  s.clock.Now(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", eventType,
			"id", booking.ID,
			"error", err,
		)
	}
}
