package core

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWordsReceiptStyle(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "Zero only"},
		{7, "Seven only"},
		{10, "Ten only"},
		{19, "Nineteen only"},
		{40, "Forty only"},
		{99, "Ninety Nine only"},
		{100, "One Hundred only"},
		{101, "One Hundred One only"},
		{1500, "One Thousand Five Hundred only"},
		{1055, "One Thousand Fifty Five only"},
		{20000, "Twenty Thousand only"},
		{100000, "One Lakh only"},
		{3000000, "Thirty Lakh only"},
		{1234567, "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven only"},
		{10000000, "One Crore only"},
		{10000001, "One Crore One only"},
		{999999999, "Ninety Nine Crore Ninety Nine Lakh Ninety Nine Thousand Nine Hundred Ninety Nine only"},
		{1234500000, "One Hundred Twenty Three Crore Forty Five Lakh only"},
		{10000000000, "One Thousand Crore only"},
	}
	for _, tc := range cases {
		got, err := Words(tc.in, ReceiptWords)
		if err != nil {
			t.Fatalf("Words(%d) error: %v", tc.in, err)
		}
		if got != tc.out {
			t.Errorf("Words(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestWordsRupeeStyle(t *testing.T) {
	got, _ := Words(0, RupeeWords)
	if got != "Zero Rupees" {
		t.Fatalf("zero: %q", got)
	}
	got, _ = Words(250000, RupeeWords)
	if got != "Two Lakh Fifty Thousand Rupees" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestWordsRejectsNegative(t *testing.T) {
	if _, err := Words(-1, ReceiptWords); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := AmountInWords(decimal.NewFromFloat(-0.5), ReceiptWords); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount for decimal, got %v", err)
	}
}

func TestAmountInWordsTruncatesPaise(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0.75", "Zero only"},
		{"100.99", "One Hundred only"},
		{"1500.5", "One Thousand Five Hundred only"},
	}
	for _, tc := range cases {
		amt, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		got, err := AmountInWords(amt, ReceiptWords)
		if err != nil || got != tc.out {
			t.Errorf("AmountInWords(%s) = %q (err=%v), want %q", tc.in, got, err, tc.out)
		}
	}
}

func TestWordsRoundTrip(t *testing.T) {
	samples := []int64{0, 1, 9, 10, 11, 20, 21, 99, 100, 110, 999, 1000, 1001, 9999, 10000,
		99999, 100000, 100001, 999999, 1000000, 9999999, 10000000, 10100100, 99999999, 100000000, 999999999}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20000; i++ {
		samples = append(samples, rng.Int63n(1_000_000_000))
	}

	for _, n := range samples {
		words, err := Words(n, ReceiptWords)
		if err != nil {
			t.Fatalf("Words(%d): %v", n, err)
		}
		back, err := parseIndianWords(words, ReceiptWords)
		if err != nil {
			t.Fatalf("parse %q: %v", words, err)
		}
		if back != n {
			t.Fatalf("round trip %d -> %q -> %d", n, words, back)
		}
	}
}

// parseIndianWords is the inverse of Words for amounts below one thousand crore.
func parseIndianWords(s string, style WordStyle) (int64, error) {
	if s == style.Zero {
		return 0, nil
	}
	body, ok := strings.CutSuffix(s, " "+style.Suffix)
	if !ok {
		return 0, fmt.Errorf("missing suffix in %q", s)
	}
	values := map[string]int64{}
	for i, w := range onesWords {
		if w != "" {
			values[w] = int64(i)
		}
	}
	for i, w := range teensWords {
		values[w] = int64(10 + i)
	}
	for i, w := range tensWords {
		if w != "" {
			values[w] = int64(i * 10)
		}
	}

	var total, cur int64
	for _, tok := range strings.Fields(body) {
		switch tok {
		case "Hundred":
			cur *= 100
		case "Thousand":
			total += cur * thousand
			cur = 0
		case "Lakh":
			total += cur * lakh
			cur = 0
		case "Crore":
			total += cur * crore
			cur = 0
		default:
			v, ok := values[tok]
			if !ok {
				return 0, fmt.Errorf("unknown word %q", tok)
			}
			cur += v
		}
	}
	return total + cur, nil
}
