package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OverviewCacheKey is the invalidation key for all derived overview data
const OverviewCacheKey = "overview"

// MaxDateRangeDays bounds the range an overview may span
const MaxDateRangeDays = 90

// BalanceStats contains income and expense totals over a date range
type BalanceStats struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CategoryStat is the total amount for one category over a date range
type CategoryStat struct {
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Icon     string          `json:"categoryIcon"`
	Amount   decimal.Decimal `json:"amount"`
}

// Overview is the aggregated dashboard data for a date range
type Overview struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Balance    BalanceStats    `json:"balance"`
	Categories []*CategoryStat `json:"categories"`
}
