package catalog

import (
	"strings"

	"github.com/eshop/backend/internal/domain/shared"
)

// Category is a bilingual catalog category
type Category struct {
	shared.BaseEntity
	NameEl   string
	NameEn   string
	Slug     string
	IsActive bool
}

// NewCategory creates an active category
func NewCategory(nameEl, nameEn string) (*Category, error) {
	nameEl = strings.TrimSpace(nameEl)
	nameEn = strings.TrimSpace(nameEn)
	if nameEl == "" && nameEn == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if nameEl == "" {
		nameEl = nameEn
	}
	if nameEn == "" {
		nameEn = nameEl
	}
	slug := Slugify(nameEn)
	if slug == "" {
		slug = Slugify(nameEl)
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		NameEl:     nameEl,
		NameEn:     nameEn,
		Slug:       slug,
		IsActive:   true,
	}, nil
}

// CategoryIndex resolves categories by localized name, case-insensitively
type CategoryIndex map[string]Category

// NewCategoryIndex indexes the categories under both localized names.
// Later categories do not override earlier ones with the same name.
func NewCategoryIndex(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories)*2)
	for _, c := range categories {
		for _, name := range []string{c.NameEl, c.NameEn} {
			key := strings.ToLower(name)
			if key == "" {
				continue
			}
			if _, exists := idx[key]; !exists {
				idx[key] = c
			}
		}
	}
	return idx
}

// Lookup finds a category by exact, case-insensitive name
func (idx CategoryIndex) Lookup(name string) (Category, bool) {
	c, ok := idx[strings.ToLower(name)]
	return c, ok
}
