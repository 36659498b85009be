// Package money normalizes backend monetary fields, which arrive either as
// JSON numbers or numeric strings, into a single decimal representation.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a nullable decimal. The zero value is an absent amount.
type Amount struct {
	d     decimal.Decimal
	Valid bool
}

func New(d decimal.Decimal) Amount { return Amount{d: d, Valid: true} }

func FromInt(v int64) Amount { return New(decimal.NewFromInt(v)) }

// FromMinor converts minor units (paise) into an Amount in major units.
func FromMinor(minor int64) Amount { return New(decimal.New(minor, -2)) }

func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return New(d), nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) IsZero() bool { return !a.Valid || a.d.IsZero() }

// GreaterThan is false when either side is absent.
func (a Amount) GreaterThan(b Amount) bool {
	return a.Valid && b.Valid && a.d.GreaterThan(b.d)
}

func (a Amount) Equal(b Amount) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.d.Equal(b.d)
}

func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.d.String()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.d.String())
}
