package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/events"
	"spendtrack/internal/models"
	"spendtrack/internal/pagination"
)

// SpentRule selects which transaction types count towards a budget's spent
// amount.
type SpentRule int

const (
	// SpentAllTypes sums every transaction in the category regardless of
	// type. This matches the app's historical behavior, where income rows
	// in a category count against its budget too.
	SpentAllTypes SpentRule = iota
	// SpentExpensesOnly sums only expense transactions.
	SpentExpensesOnly
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db   *gorm.DB
	bus  *events.Bus
	rule SpentRule
}

// NewBudgetService creates a new BudgetServicer using rule to compute
// spent amounts. Mutations are published on bus.
func NewBudgetService(db *gorm.DB, bus *events.Bus, rule SpentRule) BudgetServicer {
	return &budgetService{db: db, bus: bus, rule: rule}
}

func (s *budgetService) checkCategory(userID, categoryID string) error {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateBudget creates a spending ceiling for a category.
func (s *budgetService) CreateBudget(userID, categoryID string, amountCents int64) (*models.Budget, error) {
	if amountCents <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be a positive number")
	}
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if err := s.checkCategory(userID, categoryID); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		AmountCents: amountCents,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableBudgets,
		Type:   events.EventInsert,
		UserID: userID,
		New:    budget,
	})
	return budget, nil
}

// GetUserBudgets retrieves a paginated list of the user's budgets with
// their categories preloaded.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget changes a budget's amount and/or category.
func (s *budgetService) UpdateBudget(userID, budgetID string, amountCents *int64, categoryID string) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	old := *budget

	updates := make(map[string]interface{})
	if amountCents != nil {
		if *amountCents <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be a positive number")
		}
		updates["amount_cents"] = *amountCents
	}
	if categoryID != "" && categoryID != budget.CategoryID {
		if err := s.checkCategory(userID, categoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = categoryID
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if amountCents != nil {
			budget.AmountCents = *amountCents
		}
		if categoryID != "" {
			budget.CategoryID = categoryID
		}
	}

	s.bus.Publish(events.Change{
		Table:  events.TableBudgets,
		Type:   events.EventUpdate,
		UserID: userID,
		New:    budget,
		Old:    &old,
	})
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableBudgets,
		Type:   events.EventDelete,
		UserID: userID,
		Old:    budget,
	})
	return nil
}

// GetBudgetProgress recomputes spending against the budget's ceiling.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("user_id = ? AND category_id = ?", userID, budget.CategoryID)
	if s.rule == SpentExpensesOnly {
		query = query.Where("type = ?", models.TransactionTypeExpense)
	}

	var spent int64
	if err := query.Scan(&spent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	remaining, percentage := Progress(spent, budget.AmountCents)
	return &BudgetProgress{
		BudgetID:       budget.ID,
		CategoryID:     budget.CategoryID,
		BudgetedCents:  budget.AmountCents,
		SpentCents:     spent,
		RemainingCents: remaining,
		Percentage:     percentage,
	}, nil
}

// Progress computes the remaining amount and the percentage of the budget
// consumed. The percentage is capped at 100 and is 0 for a non-positive
// budget amount; remaining never goes below zero.
func Progress(spentCents, budgetCents int64) (remainingCents int64, percentage float64) {
	if budgetCents > 0 {
		percentage = float64(spentCents) / float64(budgetCents) * 100
		if percentage > 100 {
			percentage = 100
		}
		if percentage < 0 {
			percentage = 0
		}
	}
	remainingCents = budgetCents - spentCents
	if remainingCents < 0 {
		remainingCents = 0
	}
	return remainingCents, percentage
}

// ProgressLevel classifies a progress percentage for display.
type ProgressLevel string

const (
	ProgressNormal ProgressLevel = "normal"
	ProgressWarn   ProgressLevel = "warn"
	ProgressOver   ProgressLevel = "over"
)

// LevelFor returns the display treatment for a progress percentage:
// over-budget at 100 and above, warning at 80 and above, normal otherwise.
func LevelFor(percentage float64) ProgressLevel {
	switch {
	case percentage >= 100:
		return ProgressOver
	case percentage >= 80:
		return ProgressWarn
	default:
		return ProgressNormal
	}
}
