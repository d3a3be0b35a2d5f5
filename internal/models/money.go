package models

import (
	"bytes"
	"errors"

	"github.com/shopspring/decimal"
)

// Currency is appended to every rendered amount.
const Currency = "DH"

func init() {
	// Prices travel as JSON numbers, like the storefront sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney applies the 2-decimal rounding policy (half away from zero).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal is price × qty under the rounding policy.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return RoundMoney(price.Mul(decimal.NewFromInt(int64(qty))))
}

// FormatMoney renders an amount with two decimals and the currency, e.g. "20.00 DH".
func FormatMoney(d decimal.Decimal) string {
	return RoundMoney(d).StringFixed(2) + " " + Currency
}

// ErrAmountNotNumber is returned when an Amount is decoded from anything but
// a bare JSON number.
var ErrAmountNotNumber = errors.New("amount must be a JSON number")

// Amount is a submitted money value. Unlike decimal.Decimal it only decodes
// from a JSON number, so "10" is refused while 10 is accepted.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '"' || bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false")) {
		return ErrAmountNotNumber
	}
	return a.Decimal.UnmarshalJSON(b)
}
