package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

// CategoryService manages the two-level category tree
type CategoryService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func NewCategoryService(s store.Store, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		store: s,
		log:   log.With().Str("component", "categories").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// validate checks the input and, when a parent is named, that the parent
// exists, is a top-level category of the same type and is not id itself.
func (s *CategoryService) validate(ctx context.Context, id string, in models.CategoryInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("category name is required")
	}
	if !in.Type.Valid() {
		return invalidf("unknown category type %q", in.Type)
	}
	if in.ParentID == "" {
		return nil
	}
	if in.ParentID == id {
		return invalidf("category cannot be its own parent")
	}

	parent, err := s.store.GetCategory(ctx, in.ParentID)
	if err != nil {
		return translate(err, "parent category "+in.ParentID)
	}
	if parent.ParentID != "" {
		return invalidf("parent category %s is itself a subcategory", parent.ID)
	}
	if parent.Type != in.Type {
		return invalidf("parent category type %s does not match %s", parent.Type, in.Type)
	}
	return nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	if err := s.validate(ctx, "", in); err != nil {
		return models.Category{}, err
	}

	c := models.Category{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		ParentID:  in.ParentID,
		Icon:      in.Icon,
		Color:     in.Color,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return models.Category{}, translate(err, "create category")
	}
	return c, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, translate(err, "category "+id)
	}
	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error) {
	if categoryType != "" && !categoryType.Valid() {
		return nil, invalidf("unknown category type %q", categoryType)
	}
	categories, err := s.store.ListCategories(ctx, categoryType)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	return categories, nil
}

// UpdateCategory replaces the category's fields. A category that has
// children cannot be moved under another parent.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in models.CategoryInput) (models.Category, error) {
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, translate(err, "category "+id)
	}
	if err := s.validate(ctx, id, in); err != nil {
		return models.Category{}, err
	}

	if in.ParentID != "" {
		all, err := s.store.ListCategories(ctx, "")
		if err != nil {
			return models.Category{}, translate(err, "list categories")
		}
		for _, c := range all {
			if c.ParentID == id {
				return models.Category{}, invalidf("category %s has subcategories and cannot get a parent", id)
			}
		}
	}

	updated := models.Category{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		ParentID:  in.ParentID,
		Icon:      in.Icon,
		Color:     in.Color,
		CreatedAt: existing.CreatedAt,
	}
	if err := s.store.UpdateCategory(ctx, updated); err != nil {
		return models.Category{}, translate(err, "category "+id)
	}
	return updated, nil
}

// DeleteCategory removes the category and its direct children. Transactions
// keep their category id.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return translate(err, "category "+id)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return translate(err, "category "+id)
	}
	s.log.Info().Str("category_id", id).Msg("Category deleted")
	return nil
}
