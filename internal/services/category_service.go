package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/events"
	"spendtrack/internal/models"
	"spendtrack/internal/pagination"
	"spendtrack/internal/validator"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewCategoryService creates a new CategoryServicer. Mutations are
// published on bus.
func NewCategoryService(db *gorm.DB, bus *events.Bus) CategoryServicer {
	return &categoryService{db: db, bus: bus}
}

// CreateCategory creates a new category for the user.
func (s *categoryService) CreateCategory(userID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if !validator.ValidCategoryName(name) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be 2-20 characters")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableCategories,
		Type:   events.EventInsert,
		UserID: userID,
		New:    category,
	})
	return category, nil
}

// GetUserCategories retrieves a paginated list of the user's categories,
// ordered by name ascending.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames a category. Existing transactions keep their
// denormalized copy of the old name.
func (s *categoryService) UpdateCategory(userID, categoryID, name string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	old := *category

	name = strings.TrimSpace(name)
	if !validator.ValidCategoryName(name) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be 2-20 characters")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND id <> ?", userID, name, categoryID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	if err := s.db.Model(category).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.Name = name

	s.bus.Publish(events.Change{
		Table:  events.TableCategories,
		Type:   events.EventUpdate,
		UserID: userID,
		New:    category,
		Old:    &old,
	})
	return category, nil
}

// DeleteCategory soft-deletes a category. Transactions referencing it are
// left untouched; a repeated delete of the same id reports not found.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableCategories,
		Type:   events.EventDelete,
		UserID: userID,
		Old:    category,
	})
	return nil
}
