package pricing

import "github.com/shopspring/decimal"

// Amount is a currency value rendered with CurrencyPlaces decimals,
// so 180 travels as "180.00".
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d half-up to CurrencyPlaces
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(CurrencyPlaces)}
}

// MarshalJSON renders the amount as a fixed-point string
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(CurrencyPlaces) + `"`), nil
}
