// Package core provides money parsing and formatting utilities.
//
// Amounts are whole currency units held in int64. The only place fractional
// money appears is Amount in earnings.go, which rounds once.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseWage converts a whole-unit amount such as "1200", "1,200" or "¥1,200"
// to an int64. Only positive values are accepted.
func ParseWage(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '+'
	})
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidWage
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidWage
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidWage
	}
	return v, nil
}

// ParseAmount is ParseWage that also accepts zero, for totals read back from exports.
func ParseAmount(s string) (int64, error) {
	if strings.TrimSpace(s) == "0" {
		return 0, nil
	}
	return ParseWage(s)
}

// Formatter renders amounts as locale-correct currency strings.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter builds a Formatter for a language tag and an ISO 4217 currency code.
// An unknown code falls back to JPY.
func NewFormatter(tag language.Tag, code string) Formatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.JPY
	}
	return Formatter{printer: message.NewPrinter(tag), unit: unit}
}

// Format renders the currency symbol followed by the grouped amount.
func (f Formatter) Format(amount int64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Currency returns the ISO code the formatter prints.
func (f Formatter) Currency() string {
	return f.unit.String()
}
