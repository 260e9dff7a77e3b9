package service

import (
	"context"
	"errors"
	productserrors "rentals/internal/products/errors"
	"rentals/internal/products/repository"
	"rentals/internal/products/validator"
	"rentals/pkg/clock"
	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"rentals/pkg/validation"
	"sync"
	"time"
)

type ProductService interface {
	Create(ctx context.Context, ownerID string, input *model.ProductInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.ProductDetails, error)
	List(ctx context.Context, limit int, offset int64) ([]*model.ProductDetails, int64, error)
	ListByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.ProductDetails, int64, error)
	Update(ctx context.Context, id, requesterID string, update *model.ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id, requesterID string) error
}

type productService struct {
	repo      repository.ProductRepository
	validator *validator.ProductValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewProductService(repo repository.ProductRepository, validator *validator.ProductValidator, clk clock.Clock, cfg *config.Config) ProductService {
	if clk == nil {
		clk = clock.System()
	}
	return &productService{
		repo:      repo,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *productService) Create(ctx context.Context, ownerID string, input *model.ProductInput) (*model.Product, error) {
	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		return nil, s.validationError("Product validation failed", err)
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	product := &model.Product{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Images:      input.Images,
		Address:     input.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.cfg.Log.Error("Failed to create product", "owner_id", ownerID, "error", err)
		return nil, apperrors.StoreFailure("Failed to create product", err)
	}

	s.cfg.Log.Info("Product created successfully", "id", product.ID, "owner_id", ownerID)
	return product, nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.ProductDetails, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.withOwners(ctx, []*model.Product{product})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *productService) List(ctx context.Context, limit int, offset int64) ([]*model.ProductDetails, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.page(ctx,
		func() (int64, error) { return s.repo.Count(ctx) },
		func() ([]*model.Product, error) { return s.repo.FindAll(ctx, limit, offset) },
	)
}

func (s *productService) ListByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.ProductDetails, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.InvalidInput("Owner ID cannot be empty")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.page(ctx,
		func() (int64, error) { return s.repo.CountByOwner(ctx, ownerID) },
		func() ([]*model.Product, error) { return s.repo.FindByOwner(ctx, ownerID, limit, offset) },
	)
}

func (s *productService) Update(ctx context.Context, id, requesterID string, update *model.ProductUpdate) (*model.Product, error) {
	if update.IsEmpty() {
		return nil, apperrors.InvalidInput("Update must change at least one field")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != requesterID {
		return nil, apperrors.Forbidden("Only the owner can update this product")
	}

	s.sanitizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Product update validation failed", "id", id, "error", err)
		return nil, s.validationError("Invalid update input", err)
	}

	merged := mergeProductUpdates(existing, update)
	merged.UpdatedAt = s.clock.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		s.cfg.Log.Error("Failed to update product", "id", id, "error", err)
		return nil, apperrors.StoreFailure("Failed to update product", err)
	}

	s.cfg.Log.Info("Product updated successfully", "id", id)
	return merged, nil
}

// Delete refuses while the product has bookings that have not ended, so an
// admitted booking never loses its product.
func (s *productService) Delete(ctx context.Context, id, requesterID string) error {
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != requesterID {
		return apperrors.Forbidden("Only the owner can delete this product")
	}

	open, err := s.repo.CountOpenBookings(ctx, id, s.clock.Now())
	if err != nil {
		return apperrors.StoreFailure("Failed to check product bookings", err)
	}
	if open > 0 {
		return apperrors.Conflict("Product has upcoming or active bookings").
			WithDetails(map[string]any{"open_bookings": open})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Product", id)
		}
		return apperrors.StoreFailure("Failed to delete product", err)
	}

	s.cfg.Log.Info("Product deleted successfully", "id", id, "owner_id", requesterID)
	return nil
}

// --- Helpers ---

func (s *productService) find(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, productserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid product ID format")
		}
		return nil, apperrors.StoreFailure("Failed to retrieve product", err)
	}
	return product, nil
}

func (s *productService) page(ctx context.Context, countFn func() (int64, error), findFn func() ([]*model.Product, error)) ([]*model.ProductDetails, int64, error) {
	var count int64
	var products []*model.Product
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = countFn()
	}()

	go func() {
		defer wg.Done()
		products, errFind = findFn()
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count products", "error", errCount)
		return nil, 0, apperrors.StoreFailure("Failed to count products", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list products", "error", errFind)
		return nil, 0, apperrors.StoreFailure("Failed to retrieve products", errFind)
	}

	details, err := s.withOwners(ctx, products)
	if err != nil {
		return nil, 0, err
	}
	return details, count, nil
}

func (s *productService) withOwners(ctx context.Context, products []*model.Product) ([]*model.ProductDetails, error) {
	ids := make([]string, 0, len(products))
	seen := map[string]bool{}
	for _, p := range products {
		if !seen[p.OwnerID] {
			seen[p.OwnerID] = true
			ids = append(ids, p.OwnerID)
		}
	}

	owners, err := s.repo.FindOwners(ctx, ids)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to load product owners", err)
	}

	details := make([]*model.ProductDetails, 0, len(products))
	for _, p := range products {
		d := &model.ProductDetails{Product: p}
		if owner, ok := owners[p.OwnerID]; ok {
			d.Owner = owner.Summary()
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *productService) sanitize(input *model.ProductInput) {
	input.Name = sanitizer.NormalizeName(input.Name)
	input.Description = sanitizer.NormalizeText(input.Description)
	input.Address = sanitizer.NormalizeAddress(input.Address)
	input.Images = sanitizer.NormalizeImages(input.Images)
}

func (s *productService) sanitizeUpdate(update *model.ProductUpdate) {
	if update.Name != nil {
		v := sanitizer.NormalizeName(*update.Name)
		update.Name = &v
	}
	if update.Description != nil {
		v := sanitizer.NormalizeText(*update.Description)
		update.Description = &v
	}
	if update.Address != nil {
		v := sanitizer.NormalizeAddress(*update.Address)
		update.Address = &v
	}
	if update.Images != nil {
		v := sanitizer.NormalizeImages(*update.Images)
		update.Images = &v
	}
}

func (s *productService) validationError(message string, err error) error {
	if errs, ok := validation.AsValidationErrors(err); ok {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func mergeProductUpdates(existing *model.Product, update *model.ProductUpdate) *model.Product {
	merged := *existing

	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.Images != nil {
		merged.Images = *update.Images
	}
	if update.Address != nil {
		merged.Address = *update.Address
	}

	return &merged
}
