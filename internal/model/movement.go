package model

import "github.com/shopspring/decimal"

// Movement types accepted by the backend.
const (
	MovementIncome  = "income"
	MovementExpense = "expense"
)

// Movement represents an income or expense entry.
type Movement struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	AccountID   int64           `json:"account_id"`
	AccountName string          `json:"account_name,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes,omitempty"`
	Date        string          `json:"date"` // YYYY-MM-DD, day granularity
	HasFile     bool            `json:"has_attachment,omitempty"`
}

// MovementRequest is the body for creating or updating a movement.
type MovementRequest struct {
	Type      string          `json:"type"`
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
	Date      string          `json:"date"`
}

// MovementStats aggregates movements, optionally filtered.
type MovementStats struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
	Count        int             `json:"count"`
}

// Tag is a label that accounts and movements can carry.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
