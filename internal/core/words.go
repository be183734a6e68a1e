package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
)

// WordStyle selects the trailing suffix and the text used for zero.
type WordStyle struct {
	Suffix string
	Zero   string
}

var (
	// ReceiptWords is used on receipts and report totals: "Thirty Lakh only".
	ReceiptWords = WordStyle{Suffix: "only", Zero: "Zero only"}
	// RupeeWords is used on the dashboard: "Thirty Lakh Rupees".
	RupeeWords = WordStyle{Suffix: "Rupees", Zero: "Zero Rupees"}
)

var (
	onesWords  = [...]string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	teensWords = [...]string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tensWords  = [...]string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// Words renders n using the Indian numbering system (crore, lakh, thousand,
// hundred) followed by the style suffix.
//
//	Words(1234567, ReceiptWords) -> "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven only"
func Words(n int64, style WordStyle) (string, error) {
	if n < 0 {
		return "", ErrNegativeAmount
	}
	if n == 0 {
		return style.Zero, nil
	}
	return indianWords(n) + " " + style.Suffix, nil
}

// AmountInWords converts the rupee part of amount; paise are truncated.
func AmountInWords(amount decimal.Decimal, style WordStyle) (string, error) {
	if amount.IsNegative() {
		return "", ErrNegativeAmount
	}
	whole := amount.Truncate(0)
	if whole.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return "", ErrInvalidAmount
	}
	return Words(whole.IntPart(), style)
}

// indianWords renders n > 0 without suffix.
func indianWords(n int64) string {
	var b strings.Builder

	if n >= crore {
		crores := n / crore
		if crores < 1000 {
			b.WriteString(threeDigits(int(crores)))
		} else {
			// "One Thousand Crore" and beyond reuse the full converter.
			b.WriteString(indianWords(crores))
		}
		b.WriteString(" Crore ")
		n %= crore
	}
	if n >= lakh {
		b.WriteString(twoDigits(int(n / lakh)))
		b.WriteString(" Lakh ")
		n %= lakh
	}
	if n >= thousand {
		b.WriteString(twoDigits(int(n / thousand)))
		b.WriteString(" Thousand ")
		n %= thousand
	}
	if n > 0 {
		b.WriteString(threeDigits(int(n)))
	}

	return strings.TrimSpace(b.String())
}

// twoDigits converts 0..99; zero yields "".
func twoDigits(n int) string {
	switch {
	case n == 0:
		return ""
	case n < 10:
		return onesWords[n]
	case n < 20:
		return teensWords[n-10]
	}
	s := tensWords[n/10]
	if n%10 != 0 {
		s += " " + onesWords[n%10]
	}
	return s
}

// threeDigits converts 0..999; zero yields "".
func threeDigits(n int) string {
	if n == 0 {
		return ""
	}
	hundreds, rest := n/100, n%100
	var s string
	if hundreds > 0 {
		s = onesWords[hundreds] + " Hundred"
		if rest > 0 {
			s += " "
		}
	}
	if rest > 0 {
		s += twoDigits(rest)
	}
	return s
}
