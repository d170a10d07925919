package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be a non-negative number")

// NormalizeAmount parses s as an exact decimal and renders it with two
// places. Empty input means zero.
func NormalizeAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0.00", nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return "", ErrInvalidAmount
	}
	return d.StringFixed(2), nil
}

// DisplayAmount is NormalizeAmount for values already stored; anything
// unparseable renders as 0.00.
func DisplayAmount(s string) string {
	out, err := NormalizeAmount(s)
	if err != nil {
		return "0.00"
	}
	return out
}

// NumericText accepts a JSON string or number and keeps its text form, so
// "12.50" and 12.5 both decode without going through float64.
type NumericText string

func (n *NumericText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return ErrInvalidAmount
	}
	*n = NumericText(num.String())
	return nil
}
