package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a financial expense record.
// User and Category are filled in by joined reads so the value stays usable
// without a live connection.
type Expense struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	CategoryID int64           `json:"category_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	User     User     `json:"user"`
	Category Category `json:"category"`
}

// ExpenseUpdate lists the mutable fields of an expense. Nil fields are left
// untouched.
type ExpenseUpdate struct {
	Name       *string
	Amount     *decimal.Decimal
	CategoryID *int64
}

// IsEmpty reports whether the update changes nothing.
func (u ExpenseUpdate) IsEmpty() bool {
	return u.Name == nil && u.Amount == nil && u.CategoryID == nil
}

// User represents a user account.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email,omitempty"`
	PasswordHash string  `json:"-"`
}

// Category groups expenses under a unique name.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
