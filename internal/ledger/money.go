package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount is returned for amounts that are not positive decimals.
var ErrInvalidAmount = errors.New("ledger: invalid amount")

// DisplayCurrency is the fixed symbol used when rendering amounts to users.
const DisplayCurrency = "₹"

// Cents is a monetary amount in hundredths of the display currency.
// Storing integer cents keeps the hundredths precision exact.
type Cents int64

// Float returns the decimal value represented by c.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String renders the amount with two decimals and the display symbol.
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, DisplayCurrency, v/100, v%100)
}

// ParseAmount converts a user-typed decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) separators and performs
// half-up rounding on the third decimal place. Negative, zero, and
// non-numeric inputs are rejected with ErrInvalidAmount, so a successful
// parse is always strictly positive.
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	// Normalize the fraction to three digits for half-up rounding.
	frac := fracPart
	for len(frac) < 3 {
		frac += "0"
	}
	fv, err := strconv.ParseInt(frac[:3], 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := iv*100 + fv/10
	if fv%10 >= 5 {
		cents++
	}

	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return Cents(cents), nil
}
