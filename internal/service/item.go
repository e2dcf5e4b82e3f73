package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
	"rentoo/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type itemService struct {
	itemRepo repository.ItemRepository
	images   storage.ImageStore
}

func NewItemService(itemRepo repository.ItemRepository, images storage.ImageStore) ItemService {
	return &itemService{itemRepo: itemRepo, images: images}
}

func (s *itemService) Create(ctx context.Context, ownerID string, in ItemInput) (*domain.Item, error) {
	logger.EnterMethod("itemService.Create", "ownerID", ownerID, "title", in.Title)

	var verr ValidationError
	validateTitle(&verr, in.Title)
	validateDescription(&verr, in.Description)
	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", "Field required")
	}
	validatePrice(&verr, "price_per_day", &in.PricePerDay)
	validatePrice(&verr, "price_per_week", in.PricePerWeek)
	validatePrice(&verr, "price_per_month", in.PricePerMonth)
	status := in.Status
	if status == "" {
		status = domain.ItemStatusActive
	} else if !status.Valid() {
		verr.Add("status", "Unknown item status")
	}
	if err := verr.Err(); err != nil {
		logger.ExitMethodWithError("itemService.Create", err)
		return nil, err
	}

	item := &domain.Item{
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		PricePerDay:   in.PricePerDay,
		PricePerWeek:  in.PricePerWeek,
		PricePerMonth: in.PricePerMonth,
		Location:      in.Location,
		Parameters:    in.Parameters,
		Images:        in.Images,
		Status:        status,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		logger.ExitMethodWithError("itemService.Create", err)
		return nil, err
	}

	logger.ExitMethod("itemService.Create", "itemID", item.ID)
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Item not found")
	}
	return item, err
}

func (s *itemService) ListMine(ctx context.Context, ownerID string) ([]domain.Item, error) {
	return s.itemRepo.ListByOwner(ctx, ownerID)
}

func (s *itemService) Search(ctx context.Context, q repository.ItemSearch) ([]domain.Item, error) {
	var verr ValidationError
	if q.Page == 0 {
		q.Page = 1
	} else if q.Page < 1 {
		verr.Add("page", "Input should be greater than or equal to 1")
	}
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	} else if q.Limit < 1 || q.Limit > maxPageSize {
		verr.Add("limit", "Input should be between 1 and 100")
	}
	switch q.SortBy {
	case "":
		q.SortBy = "created_at"
	case "created_at", "price":
	default:
		verr.Add("sort_by", "Input should be 'created_at' or 'price'")
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = "desc"
	case "asc", "desc":
	default:
		verr.Add("sort_order", "Input should be 'asc' or 'desc'")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return s.itemRepo.Search(ctx, q)
}

// owned loads an item the actor owns. Items of other owners look missing.
func (s *itemService) owned(ctx context.Context, actorID, id string) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && item.OwnerID != actorID) {
		return nil, notFound("Item not found or not authorized")
	}
	return item, err
}

func (s *itemService) Update(ctx context.Context, actorID, id string, in ItemPatch) (*domain.Item, error) {
	item, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	var verr ValidationError
	if in.Title != nil {
		validateTitle(&verr, *in.Title)
		item.Title = *in.Title
	}
	if in.Description != nil {
		validateDescription(&verr, *in.Description)
		item.Description = *in.Description
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.PricePerDay != nil {
		validatePrice(&verr, "price_per_day", in.PricePerDay)
		item.PricePerDay = *in.PricePerDay
	}
	if in.PricePerWeek != nil {
		validatePrice(&verr, "price_per_week", in.PricePerWeek)
		item.PricePerWeek = in.PricePerWeek
	}
	if in.PricePerMonth != nil {
		validatePrice(&verr, "price_per_month", in.PricePerMonth)
		item.PricePerMonth = in.PricePerMonth
	}
	if in.Location != nil {
		item.Location = in.Location
	}
	if in.Parameters != nil {
		item.Parameters = in.Parameters
	}
	if in.Images != nil {
		item.Images = in.Images
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			verr.Add("status", "Unknown item status")
		}
		item.Status = *in.Status
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, actorID, id string) error {
	item, err := s.owned(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, url := range item.Images {
		if err := s.images.Delete(ctx, url); err != nil {
			logger.Warn("Failed to delete item image", "itemID", id, "url", url, "error", err)
		}
	}
	return nil
}

func (s *itemService) AddImage(ctx context.Context, actorID, id, filename, contentType string, r io.Reader) (*domain.Item, error) {
	logger.EnterMethod("itemService.AddImage", "itemID", id, "filename", filename, "contentType", contentType)

	item, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Save(ctx, "items", filename, contentType, r)
	if errors.Is(err, storage.ErrInvalidType) || errors.Is(err, storage.ErrTooLarge) {
		logger.ExitMethodWithError("itemService.AddImage", err)
		return nil, invalid("Invalid file type or size")
	}
	if err != nil {
		logger.ExitMethodWithError("itemService.AddImage", err)
		return nil, err
	}

	item.Images = append(item.Images, url)
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	logger.ExitMethod("itemService.AddImage", "url", url)
	return item, nil
}

func validateTitle(verr *ValidationError, title string) {
	if n := len([]rune(title)); n < 1 || n > 200 {
		verr.Add("title", "Title must be between 1 and 200 characters")
	}
}

func validateDescription(verr *ValidationError, description string) {
	if description == "" {
		verr.Add("description", "Description is required")
	}
}

func validatePrice(verr *ValidationError, field string, price *float64) {
	if price != nil && *price <= 0 {
		verr.Add(field, "Input should be greater than 0")
	}
}
