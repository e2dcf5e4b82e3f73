package service

import (
	"context"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

// DefaultCategories is the catalog a fresh deployment starts with.
var DefaultCategories = []domain.Category{
	{Name: "Electronics", Slug: "electronics", Description: "Phones, tablets, laptops, cameras and other electronics"},
	{Name: "Sports and leisure", Slug: "sports", Description: "Bicycles, sports gear, camping equipment"},
	{Name: "Tools", Slug: "tools", Description: "Hand and power tools, construction equipment"},
	{Name: "Home appliances", Slug: "appliances", Description: "Fridges, washing machines, vacuum cleaners and more"},
	{Name: "Clothing and accessories", Slug: "clothing", Description: "Clothes, shoes, bags, accessories"},
	{Name: "Furniture", Slug: "furniture", Description: "Tables, chairs, sofas, wardrobes and other furniture"},
	{Name: "Transport", Slug: "transport", Description: "Cars, motorcycles, scooters, bicycles"},
	{Name: "Other", Slug: "other", Description: "Everything else"},
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *categoryService) Seed(ctx context.Context) (int, error) {
	existing, err := s.categoryRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logger.Info("Categories already exist, skipping seed", "count", len(existing))
		return 0, nil
	}

	created := 0
	for _, c := range DefaultCategories {
		c := c
		if err := s.categoryRepo.Create(ctx, &c); err != nil {
			return created, err
		}
		created++
	}
	logger.Info("Seeded default categories", "count", created)
	return created, nil
}
