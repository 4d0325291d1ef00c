package core

// convert.go turns extract cell text into exact decimals and back.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives written as (123.45)
//   - Exponent notation written by Excel for very small or large values
//   - Excel formula prefixes (="value") and stray quotes
//
// Decimals are carried as pgtype.Numeric (an unscaled big.Int plus a base-10
// exponent) so multiplication is exact and nothing is rounded.

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// MaxExponent bounds the exponent accepted in scientific notation. Larger
// values would expand to millions of digits when formatted.
const MaxExponent = 1000

// integerRegex matches plain integers with an optional sign.
var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace and a leading UTF-8 BOM
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// normalizeNumber strips currency symbols, thousands separators and the
// accounting-format parentheses, returning a plain signed literal.
func normalizeNumber(s string) string {
	s = CleanCell(s)

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "\u00a3", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	return s
}

// IsDecimalText reports whether s is a plain decimal or exponent literal
// that a database will accept as-is: no currency symbols or separators.
func IsDecimalText(s string) bool {
	return numericRegex.MatchString(strings.TrimSpace(s))
}

// IsIntegerText reports whether s is a plain integer that fits in int64.
func IsIntegerText(s string) bool {
	s = strings.TrimSpace(s)
	if !integerRegex.MatchString(s) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// ParseNumeric converts cell text to an exact decimal.
// Empty input returns an invalid Numeric and no error; anything else that is
// not a number returns ErrNotNumeric.
func ParseNumeric(s string) (pgtype.Numeric, error) {
	raw := s
	s = normalizeNumber(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}, nil
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{}, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}

	// pgtype parses plain decimals; the exponent is folded in afterwards.
	mantissa, exp := s, int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err != nil || e > MaxExponent || e < -MaxExponent {
			return pgtype.Numeric{}, fmt.Errorf("%w: exponent out of range: %q", ErrNotNumeric, raw)
		}
		mantissa, exp = s[:i], e
	}
	mantissa = strings.TrimPrefix(mantissa, "+")
	if strings.HasSuffix(mantissa, ".") {
		mantissa += "0"
	}
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	} else if strings.HasPrefix(mantissa, "-.") {
		mantissa = "-0" + mantissa[1:]
	}

	var n pgtype.Numeric
	if err := n.Scan(mantissa); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	total := int64(n.Exp) + exp
	if total > math.MaxInt32 || total < math.MinInt32 {
		return pgtype.Numeric{}, fmt.Errorf("%w: exponent out of range: %q", ErrNotNumeric, raw)
	}
	n.Exp = int32(total)
	return n, nil
}

// MulNumeric returns the exact product of a and b. The result's scale is
// the sum of the operands' scales. If either operand is invalid (NULL) the
// product is invalid. A combined exponent that does not fit in int32 returns
// ErrNumericRange.
func MulNumeric(a, b pgtype.Numeric) (pgtype.Numeric, error) {
	if !a.Valid || !b.Valid || a.Int == nil || b.Int == nil {
		return pgtype.Numeric{Valid: false}, nil
	}
	exp := int64(a.Exp) + int64(b.Exp)
	if exp > math.MaxInt32 || exp < math.MinInt32 {
		return pgtype.Numeric{}, fmt.Errorf("%w: exponent %d", ErrNumericRange, exp)
	}
	return pgtype.Numeric{
		Int:   new(big.Int).Mul(a.Int, b.Int),
		Exp:   int32(exp),
		Valid: true,
	}, nil
}

// FormatNumeric renders n as a plain decimal literal without exponent,
// e.g. Int=100 Exp=-1 gives "10.0". Invalid values render as "".
func FormatNumeric(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return ""
	}

	digits := new(big.Int).Abs(n.Int).String()
	sign := ""
	if n.Int.Sign() < 0 {
		sign = "-"
	}

	switch {
	case n.Exp > 0:
		return sign + digits + strings.Repeat("0", int(n.Exp))
	case n.Exp == 0:
		return sign + digits
	}

	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}
