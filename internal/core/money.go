// Package core provides the offering arithmetic and amount rendering used
// across the console.
//
// This file contains functions for parsing monetary amounts typed by users
// and formatting rupee totals for display.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format the backend uses for calendar dates.
const DateLayout = "2006-01-02"

// ParseAmount converts a decimal string to a rupee amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two places (paise). Empty input, signs, grouping characters and
// more than one separator are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("1234.5")  -> 1234.50, nil
//	ParseAmount("12,345")  -> 12.35, nil (rounds up)
//	ParseAmount("-1")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatINR formats whole rupees with Indian digit grouping, e.g. "₹ 1,23,456".
func FormatINR(rupees int64) string {
	neg := rupees < 0
	if neg {
		rupees = -rupees
	}
	s := "₹ " + groupIndian(strconv.FormatInt(rupees, 10))
	if neg {
		return "-" + s
	}
	return s
}

// FormatAmountINR is FormatINR for decimal amounts; paise are shown only when present.
func FormatAmountINR(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	amount = amount.Abs()
	whole := amount.Truncate(0)
	s := "₹ " + groupIndian(whole.String())
	if frac := amount.Sub(whole); !frac.IsZero() {
		s += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian groups the last three digits, then every two: 12345678 -> 1,23,45,678.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
