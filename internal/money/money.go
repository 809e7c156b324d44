// Package money holds the amount and currency helpers shared by the grant engine.
//
// Amounts are exact decimals in major units. Currency metadata (fraction digits,
// symbols) comes from go-money's ISO 4217 table.
package money

import (
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency indicates a currency code outside ISO 4217.
var ErrUnknownCurrency = errors.New("unknown currency")

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency checks that code is a known ISO currency.
func ValidateCurrency(code string) error {
	code = NormalizeCurrency(code)
	if len(code) != 3 || gomoney.GetCurrency(code) == nil {
		return ErrUnknownCurrency
	}
	return nil
}

// Format renders amount in the conventional style of its currency, e.g. "$1,250.00".
// Unknown currencies fall back to "<amount> <code>".
func Format(amount decimal.Decimal, code string) string {
	code = NormalizeCurrency(code)
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// Round rounds amount to the minor unit of its currency.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	cur := gomoney.GetCurrency(NormalizeCurrency(code))
	if cur == nil {
		return amount.Round(2)
	}
	return amount.Round(int32(cur.Fraction))
}

// NonNegative clamps amount at zero.
func NonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Percent returns round(part / whole * 100) and 0 when whole is zero.
func Percent(part, whole decimal.Decimal) int64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
