package domain

import (
	"context"
	"time"
)

// UserSettings holds per-user preferences. There is at most one row per user.
type UserSettings struct {
	UserID    string    `json:"userId"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateUserCurrencyPayload is the payload for changing the preferred currency
type UpdateUserCurrencyPayload struct {
	Currency string `json:"currency" validate:"required,supported_currency"`
}

// Currency describes a currency the user can pick
type Currency struct {
	Code   string `json:"value"`
	Label  string `json:"label"`
	Locale string `json:"locale"`
}

// DefaultCurrency is assigned when settings are created implicitly
const DefaultCurrency = "USD"

// Currencies is the list of supported currencies, in display order
var Currencies = []Currency{
	{Code: "USD", Label: "$ Dollar", Locale: "en-US"},
	{Code: "EUR", Label: "€ Euro", Locale: "de-DE"},
	{Code: "JPY", Label: "¥ Yen", Locale: "ja-JP"},
	{Code: "GBP", Label: "£ Pound", Locale: "en-GB"},
}

// IsSupportedCurrency reports whether code is in Currencies
func IsSupportedCurrency(code string) bool {
	for _, c := range Currencies {
		if c.Code == code {
			return true
		}
	}
	return false
}

type UserSettingsRepository interface {
	Get(ctx context.Context, userID string) (*UserSettings, error)
	// Upsert creates the row for userID or replaces its currency in place
	Upsert(ctx context.Context, userID string, currency string) (*UserSettings, error)
}
