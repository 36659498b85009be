package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const Symbol = "₹"

// Format renders an amount with Indian digit grouping and at most two
// fraction digits, trailing zeros dropped. Absent amounts render as "₹0".
func Format(a Amount) string {
	if !a.Valid {
		return Symbol + "0"
	}
	d := a.d.Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(Symbol)
	b.WriteString(groupIndian(intPart))
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// groupIndian groups the last three digits, then pairs: 14490000 -> 1,44,90,000.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}

// DiscountPercent is the rounded markdown from mrp to price, or 0 when mrp
// does not exceed price.
func DiscountPercent(price, mrp Amount) int {
	if !mrp.GreaterThan(price) || mrp.d.IsZero() {
		return 0
	}
	pct := mrp.d.Sub(price.d).Div(mrp.d).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}
