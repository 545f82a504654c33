package models

// Category represents a user-defined transaction category.
//
// Deleting a category is not referentially safe on purpose: transactions
// keep their category_id and denormalized category_name so historical rows
// still render after the category is gone.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null;size:20" json:"name"`

	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}
