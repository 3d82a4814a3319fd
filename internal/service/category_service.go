package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

// CategoryService manages the category reference table.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list categories: %w", err))
	}
	return categories, nil
}

// Create adds a category; names are unique.
func (s *CategoryService) Create(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	category := &domain.Category{Name: name, Description: strings.TrimSpace(description)}
	if err := s.categories.Create(ctx, category); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("category already exists", map[string]any{"name": name})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create category: %w", err))
	}
	return category, nil
}
