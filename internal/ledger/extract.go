package ledger

import (
	"errors"
	"regexp"
)

// ErrNoAmount is returned when no usable amount is present in recognized text.
var ErrNoAmount = errors.New("ledger: no amount found")

// amountPattern matches an optional currency marker followed by a numeric
// token with at most two fractional digits.
var amountPattern = regexp.MustCompile(`(?i)(?:Rs|₹)?\s?(\d+(?:\.\d{1,2})?)`)

// ExtractAmount scans recognized receipt text for a monetary amount.
//
// Only the first match in reading order is used: not the largest, not a sum,
// not the last. On multi-line receipts with subtotal/tax/total lines this can
// pick the wrong figure; that trade-off is intentional and kept as-is.
//
// The function is pure. It returns ErrNoAmount when no match exists or the
// matched token parses to zero, so callers never receive a non-positive
// amount with a nil error.
func ExtractAmount(rawText string) (Cents, error) {
	m := amountPattern.FindStringSubmatch(rawText)
	if m == nil {
		return 0, ErrNoAmount
	}
	amount, err := ParseAmount(m[1])
	if err != nil {
		return 0, ErrNoAmount
	}
	return amount, nil
}
