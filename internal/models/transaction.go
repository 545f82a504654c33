package models

import "time"

// TransactionType represents the type of transaction.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a single income or expense entry.
//
// CategoryName is a denormalized copy taken at write time. It is not
// reconciled when the category is renamed or deleted; the id reference and
// the copied name may disagree and readers must tolerate that.
type Transaction struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         TransactionType `gorm:"not null" json:"type"`
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `gorm:"not null" json:"description"`
	AmountCents  int64           `gorm:"type:bigint;not null" json:"amount_cents"`
	CategoryID   string          `gorm:"type:uuid;not null;index" json:"category_id"`
	CategoryName string          `json:"category_name"`
	Date         time.Time       `gorm:"not null" json:"date"`
}
