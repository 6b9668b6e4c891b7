package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func NewBool(b bool) *bool {
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// ParseQuantity coerces free-form input into a quantity. Anything that
// fails decimal parsing becomes zero; the second return reports whether
// that coercion happened so callers can count silently dropped values.
func ParseQuantity(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// Tolerate a decimal comma from spreadsheet locales.
	normalized := strings.ReplaceAll(s, ",", ".")
	qty, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, true
	}
	return qty, false
}

// ParseActiveFlag coerces an import cell into the active flag. Blank
// cells keep the default (active); unparseable cells also default to
// active and are reported as coerced.
func ParseActiveFlag(s string) (active bool, coerced bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return true, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, false
	}
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return b, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, false
	}
	return true, true
}
