package services

import (
	"gorm.io/gorm"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/listview"
	"spendtrack/internal/models"
)

// summaryService derives balance figures from the user's transactions.
type summaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db}
}

// GetBalance sums the user's transactions by type. Balance is income minus
// expense over the full set; nothing is cached between reads.
func (s *summaryService) GetBalance(userID string) (*listview.Totals, error) {
	type row struct {
		Type  models.TransactionType
		Total int64
	}

	var rows []row
	err := s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount_cents), 0) AS total").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var totals listview.Totals
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			totals.IncomeCents = r.Total
		case models.TransactionTypeExpense:
			totals.ExpenseCents = r.Total
		}
	}
	totals.BalanceCents = totals.IncomeCents - totals.ExpenseCents
	return &totals, nil
}
