package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/events"
	"spendtrack/internal/models"
	"spendtrack/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewTransactionService creates a new TransactionServicer. Mutations are
// published on bus.
func NewTransactionService(db *gorm.DB, bus *events.Bus) TransactionServicer {
	return &transactionService{db: db, bus: bus}
}

func (s *transactionService) validateInput(userID string, in *TransactionInput) (*models.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if in.Title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.AmountCents <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", in.CategoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateTransaction creates a new transaction. The category name is copied
// onto the row at write time.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	category, err := s.validateInput(userID, &in)
	if err != nil {
		return nil, err
	}

	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	txn := &models.Transaction{
		UserID:       userID,
		Type:         in.Type,
		Title:        in.Title,
		Description:  in.Description,
		AmountCents:  in.AmountCents,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Date:         in.Date,
	}
	if err := s.db.Create(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableTransactions,
		Type:   events.EventInsert,
		UserID: userID,
		New:    txn,
	})
	return txn, nil
}

// GetUserTransactions retrieves a paginated list of the user's
// transactions, ordered by creation time descending.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txns, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// UpdateTransaction replaces the editable fields of a transaction. The
// denormalized category name is refreshed from the selected category.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	old := *txn

	category, err := s.validateInput(userID, &in)
	if err != nil {
		return nil, err
	}

	if in.Date.IsZero() {
		in.Date = txn.Date
	}

	updates := map[string]interface{}{
		"type":          in.Type,
		"title":         in.Title,
		"description":   in.Description,
		"amount_cents":  in.AmountCents,
		"category_id":   category.ID,
		"category_name": category.Name,
		"date":          in.Date,
	}
	if err := s.db.Model(txn).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	txn.Type = in.Type
	txn.Title = in.Title
	txn.Description = in.Description
	txn.AmountCents = in.AmountCents
	txn.CategoryID = category.ID
	txn.CategoryName = category.Name
	txn.Date = in.Date

	s.bus.Publish(events.Change{
		Table:  events.TableTransactions,
		Type:   events.EventUpdate,
		UserID: userID,
		New:    txn,
		Old:    &old,
	})
	return txn, nil
}

// DeleteTransaction soft-deletes a transaction. A duplicate delete of the
// same id (a double-tap) finds no row and reports not found.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(txn).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.Change{
		Table:  events.TableTransactions,
		Type:   events.EventDelete,
		UserID: userID,
		Old:    txn,
	})
	return nil
}
