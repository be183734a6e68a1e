package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1234.56", "1234.56", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,234.50", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "₹ 0"},
		{999, "₹ 999"},
		{1000, "₹ 1,000"},
		{1055, "₹ 1,055"},
		{123456, "₹ 1,23,456"},
		{12345678, "₹ 1,23,45,678"},
		{-25000, "-₹ 25,000"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.in); got != tc.out {
			t.Errorf("FormatINR(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatAmountINR(t *testing.T) {
	amt, err := ParseAmount("123456.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatAmountINR(amt); got != "₹ 1,23,456.50" {
		t.Fatalf("unexpected %q", got)
	}
	whole, _ := ParseAmount("3000000")
	if got := FormatAmountINR(whole); got != "₹ 30,00,000" {
		t.Fatalf("unexpected %q", got)
	}
}
