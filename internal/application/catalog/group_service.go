package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GroupService manages brands and categories.
type GroupService struct {
	brandRepo    catalog.BrandRepository
	categoryRepo catalog.CategoryRepository
}

// NewGroupService creates a new GroupService
func NewGroupService(brandRepo catalog.BrandRepository, categoryRepo catalog.CategoryRepository) *GroupService {
	return &GroupService{
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
	}
}

// ListBrands returns all brands ordered by name
func (s *GroupService) ListBrands(ctx context.Context) ([]GroupResponse, error) {
	brands, err := s.brandRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GroupResponse, len(brands))
	for i, b := range brands {
		out[i] = GroupResponse{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt}
	}
	return out, nil
}

// CreateBrand creates a brand with a unique name
func (s *GroupService) CreateBrand(ctx context.Context, req CreateGroupRequest) (*GroupResponse, error) {
	brand, err := catalog.NewBrand(req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.brandRepo.ExistsByName(ctx, brand.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
	}

	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}
	return &GroupResponse{ID: brand.ID, Name: brand.Name, CreatedAt: brand.CreatedAt}, nil
}

// UpdateBrand renames a brand. The new name must not belong to another brand.
func (s *GroupService) UpdateBrand(ctx context.Context, id uuid.UUID, req RenameGroupRequest) (*GroupResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, s.brandRepo, brand.Name, req.Name, "Brand"); err != nil {
		return nil, err
	}
	if err := brand.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}
	return &GroupResponse{ID: brand.ID, Name: brand.Name, CreatedAt: brand.CreatedAt}, nil
}

// DeleteBrand removes a brand that no product references
func (s *GroupService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return s.brandRepo.Delete(ctx, id)
}

// ListCategories returns all categories ordered by name
func (s *GroupService) ListCategories(ctx context.Context) ([]GroupResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GroupResponse, len(categories))
	for i, c := range categories {
		out[i] = GroupResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
	}
	return out, nil
}

// CreateCategory creates a category with a unique name
func (s *GroupService) CreateCategory(ctx context.Context, req CreateGroupRequest) (*GroupResponse, error) {
	category, err := catalog.NewCategory(req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.categoryRepo.ExistsByName(ctx, category.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return &GroupResponse{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}, nil
}

// UpdateCategory renames a category. The new name must not belong to another category.
func (s *GroupService) UpdateCategory(ctx context.Context, id uuid.UUID, req RenameGroupRequest) (*GroupResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, s.categoryRepo, category.Name, req.Name, "Category"); err != nil {
		return nil, err
	}
	if err := category.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return &GroupResponse{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}, nil
}

// DeleteCategory removes a category that no product references
func (s *GroupService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

type nameChecker interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// ensureNameFree allows a rename that only changes case
func (s *GroupService) ensureNameFree(ctx context.Context, repo nameChecker, current, next, kind string) error {
	next = strings.TrimSpace(next)
	if strings.EqualFold(current, next) {
		return nil
	}
	exists, err := repo.ExistsByName(ctx, next)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", kind+" with this name already exists")
	}
	return nil
}
