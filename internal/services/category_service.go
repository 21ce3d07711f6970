package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category, optionally under a parent of the
// same type.
func (s *categoryService) CreateCategory(userID, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "invalid category type")
	}

	if parentID != nil {
		parent, err := s.GetCategoryByID(userID, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != categoryType {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "parent category has a different type")
		}
	}

	category := &models.Category{
		UserID:   userID,
		Name:     name,
		Type:     categoryType,
		ParentID: parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&categories).Error; err != nil {
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

// UpdateCategory updates a category's name or parent. Setting ParentID to
// an explicit null detaches it from its parent.
func (s *categoryService) UpdateCategory(userID, categoryID string, fields CategoryPatch) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.ParentID.Set {
		if fields.ParentID.Value == nil {
			updates["parent_id"] = nil
		} else {
			if *fields.ParentID.Value == categoryID {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "a category cannot be its own parent")
			}
			parent, err := s.GetCategoryByID(userID, *fields.ParentID.Value)
			if err != nil {
				return nil, err
			}
			if parent.Type != category.Type {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "parent category has a different type")
			}
			updates["parent_id"] = *fields.ParentID.Value
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", categoryID).First(category).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory soft-deletes a category. Deletion is blocked while live
// transactions, budgets, or child categories reference it.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var txnCount int64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Count(&txnCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if txnCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("category is used by %d live transaction(s)", txnCount))
		}

		var budgetCount int64
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Count(&budgetCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if budgetCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("category is used by %d budget(s)", budgetCount))
		}

		var childCount int64
		if err := tx.Model(&models.Category{}).
			Where("user_id = ? AND parent_id = ?", userID, categoryID).
			Count(&childCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if childCount > 0 {
			return apperrors.WithMessage(apperrors.ErrConstraintViolation,
				fmt.Sprintf("category has %d child categor(ies)", childCount))
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
