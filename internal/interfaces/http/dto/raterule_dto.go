package dto

import "github.com/shopspring/decimal"

// RateRuleRequest represents a room rate rule create or update. Amounts are
// decimals end to end; float drift on money is not acceptable even in a
// passthrough layer.
type RateRuleRequest struct {
	Name        string          `json:"name" binding:"required"`
	RateClassID string          `json:"rate_class_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	StartDate   string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate     string          `json:"end_date" binding:"required,datetime=2006-01-02"`
	Priority    int             `json:"priority" binding:"omitempty,min=0"`
	IsActive    *bool           `json:"is_active"`
}

// RateRuleListRequest represents rate rule list filters forwarded upstream
type RateRuleListRequest struct {
	ListRequest
	RateClassID string `form:"rate_class_id"`
	ActiveOnly  bool   `form:"active_only"`
}
