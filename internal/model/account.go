package model

import "github.com/shopspring/decimal"

// Account represents a user account as returned by the backend.
type Account struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Type    string           `json:"type"` // "cash" or "bank"
	Balance decimal.Decimal  `json:"balance"`
	TagName string           `json:"tag_name,omitempty"`
	Goal    *decimal.Decimal `json:"goal,omitempty"`
}

// AccountsSummary aggregates all accounts of a user.
type AccountsSummary struct {
	TotalBalance  decimal.Decimal `json:"total_balance"`
	TotalAccounts int             `json:"total_accounts"`
}
