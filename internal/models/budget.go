package models

// Budget represents a spending ceiling for a category. The spent amount is
// never stored; it is recomputed on read from the category's transactions.
type Budget struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  string `gorm:"type:uuid;not null;index" json:"category_id"`
	AmountCents int64  `gorm:"type:bigint;not null" json:"amount_cents"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
