package catalog

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Brand groups products by manufacturer
type Brand struct {
	shared.BaseEntity
	Name string
}

// NewBrand creates a new brand
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if err := validateGroupName("brand", name); err != nil {
		return nil, err
	}
	return &Brand{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// Rename changes the brand name
func (b *Brand) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateGroupName("brand", name); err != nil {
		return err
	}
	b.Name = name
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Category groups products by kind
type Category struct {
	shared.BaseEntity
	Name string
}

// NewCategory creates a new category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateGroupName("category", name); err != nil {
		return nil, err
	}
	return &Category{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// Rename changes the category name
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateGroupName("category", name); err != nil {
		return err
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func validateGroupName(kind, name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "The "+kind+" name cannot be empty")
	}
	if len(name) > 30 {
		return shared.NewDomainError("INVALID_NAME", "The "+kind+" name cannot exceed 30 characters")
	}
	return nil
}
