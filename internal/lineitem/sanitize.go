package lineitem

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric input from forms is coerced, never rejected: malformed quantities
// degrade to 1 and malformed amounts degrade to 0 so an edit always applies.
// Well-formed out-of-range values (a negative price) are kept as typed and
// left to submission checks.

// DefaultQuantity is the quantity used for new lines and malformed input.
const DefaultQuantity = 1

// SanitizeQuantity coerces v to a whole quantity.
func SanitizeQuantity(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return DefaultQuantity
		}
		return int(n)
	case decimal.Decimal:
		return int(n.IntPart())
	case json.Number:
		return SanitizeQuantity(string(n))
	case string:
		s := strings.TrimSpace(n)
		if q, err := strconv.Atoi(s); err == nil {
			return q
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return int(d.IntPart())
		}
	}
	return DefaultQuantity
}

// SanitizeAmount coerces v to a monetary amount.
func SanitizeAmount(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case json.Number:
		return SanitizeAmount(string(n))
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// SanitizeText coerces v to a string; nil becomes empty. Numbers keep their
// decimal form so ids decoded from JSON survive.
func SanitizeText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case decimal.Decimal:
		return s.String()
	case json.Number:
		return string(s)
	}
	return ""
}
