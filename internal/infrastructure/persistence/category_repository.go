package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBrandRepository implements catalog.BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindAll returns all brands ordered by name
func (r *GormBrandRepository) FindAll(ctx context.Context) ([]catalog.Brand, error) {
	rows, err := retryRead(ctx, func() ([]models.BrandModel, error) {
		var rows []models.BrandModel
		err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
		return rows, storageError(err)
	})
	if err != nil {
		return nil, err
	}
	brands := make([]catalog.Brand, len(rows))
	for i := range rows {
		brands[i] = *rows[i].ToDomain()
	}
	return brands, nil
}

// FindByID finds a brand by its ID
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Brand, error) {
	var m models.BrandModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrBrandNotFound
		}
		return nil, storageError(err)
	}
	return m.ToDomain(), nil
}

// ExistsByName checks if a brand name is taken, ignoring case
func (r *GormBrandRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return existsByName(ctx, r.db, &models.BrandModel{}, name)
}

// Save creates or updates a brand
func (r *GormBrandRepository) Save(ctx context.Context, brand *catalog.Brand) error {
	return saveGroup(ctx, r.db, models.BrandModelFromDomain(brand), "brand")
}

// Delete removes a brand no product references
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteGroup(ctx, r.db, &models.BrandModel{}, "brand_id", id, catalog.ErrBrandNotFound, catalog.ErrBrandInUse)
}

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAll returns all categories ordered by name
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	rows, err := retryRead(ctx, func() ([]models.CategoryModel, error) {
		var rows []models.CategoryModel
		err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
		return rows, storageError(err)
	})
	if err != nil {
		return nil, err
	}
	categories := make([]catalog.Category, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var m models.CategoryModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, storageError(err)
	}
	return m.ToDomain(), nil
}

// ExistsByName checks if a category name is taken, ignoring case
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return existsByName(ctx, r.db, &models.CategoryModel{}, name)
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return saveGroup(ctx, r.db, models.CategoryModelFromDomain(category), "category")
}

// Delete removes a category no product references
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteGroup(ctx, r.db, &models.CategoryModel{}, "category_id", id, catalog.ErrCategoryNotFound, catalog.ErrCategoryInUse)
}

func existsByName(ctx context.Context, db *gorm.DB, model any, name string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error
	if err != nil {
		return false, storageError(err)
	}
	return count > 0, nil
}

func saveGroup(ctx context.Context, db *gorm.DB, model any, kind string) error {
	if err := db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists.WithDetail(kind, "name already in use")
		}
		return storageError(err)
	}
	return nil
}

// deleteGroup refuses while products reference the group, then deletes it
func deleteGroup(ctx context.Context, db *gorm.DB, model any, column string, id uuid.UUID, notFound, inUse *shared.DomainError) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.ProductModel{}).Where(column+" = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return inUse.WithDetail("products", products)
		}

		result := tx.Delete(model, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound
		}
		return nil
	})
	return storageError(err)
}

var (
	_ catalog.BrandRepository    = (*GormBrandRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
)
