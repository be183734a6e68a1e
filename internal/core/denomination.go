package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Denomination is the face value of a currency note in rupees.
type Denomination int64

const (
	Note500 Denomination = 500
	Note200 Denomination = 200
	Note100 Denomination = 100
	Note50  Denomination = 50
	Note20  Denomination = 20
	Note10  Denomination = 10
)

// Denominations lists the counted notes in display order.
var Denominations = [...]Denomination{Note500, Note200, Note100, Note50, Note20, Note10}

// Entry is a count or amount as typed into a form. It may be empty or
// half-typed; ParseCount turns it into a number.
type Entry string

// UnmarshalJSON accepts a JSON string, number or null.
func (e *Entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*e = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Entry(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("entry must be a string or number: %w", err)
		}
		*e = Entry(n.String())
	}
	return nil
}

// EntryOf wraps an already numeric value.
func EntryOf(n int64) Entry {
	return Entry(strconv.FormatInt(n, 10))
}

// ParseCount reads a base-10 integer prefix the way form fields are read:
// empty or non-numeric text is 0, leading whitespace and a sign are allowed,
// and anything after the digits is ignored ("12abc" is 12, "3.9" is 3).
// Digit runs beyond int64 saturate at math.MaxInt64 (math.MinInt64 when
// negative).
func ParseCount(text string) int64 {
	s := strings.TrimLeft(text, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	digits := s[:end]
	if neg {
		digits = "-" + digits
	}
	// ParseInt returns the clamped value along with ErrRange.
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// OfferingForm is the editable state of one offering's denomination table.
type OfferingForm struct {
	Denomination500 Entry `json:"denomination500"`
	Denomination200 Entry `json:"denomination200"`
	Denomination100 Entry `json:"denomination100"`
	Denomination50  Entry `json:"denomination50"`
	Denomination20  Entry `json:"denomination20"`
	Denomination10  Entry `json:"denomination10"`
	Coins           Entry `json:"coins"`
}

// Offering is a committed set of note counts plus loose coins in rupees.
type Offering struct {
	Counts map[Denomination]int64 `json:"counts"`
	Coins  int64                  `json:"coins"`
}

// Normalize parses every field once; negative values are clamped to zero.
func (f OfferingForm) Normalize() Offering {
	return Offering{
		Counts: map[Denomination]int64{
			Note500: clamp(ParseCount(string(f.Denomination500))),
			Note200: clamp(ParseCount(string(f.Denomination200))),
			Note100: clamp(ParseCount(string(f.Denomination100))),
			Note50:  clamp(ParseCount(string(f.Denomination50))),
			Note20:  clamp(ParseCount(string(f.Denomination20))),
			Note10:  clamp(ParseCount(string(f.Denomination10))),
		},
		Coins: clamp(ParseCount(string(f.Coins))),
	}
}

// Total is the rupee value of the offering. It saturates at math.MaxInt64
// instead of wrapping.
func (o Offering) Total() int64 {
	var total int64
	for _, d := range Denominations {
		total = addSat(total, mulSat(o.Counts[d], int64(d)))
	}
	return addSat(total, o.Coins)
}

// Count returns the number of notes of d.
func (o Offering) Count(d Denomination) int64 {
	return o.Counts[d]
}

// CalculateTotal is the live total shown while an offering is being typed.
func CalculateTotal(f OfferingForm) int64 {
	return f.Normalize().Total()
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// mulSat and addSat operate on non-negative operands only.
func mulSat(a, b int64) int64 {
	if a != 0 && b > math.MaxInt64/a {
		return math.MaxInt64
	}
	return a * b
}

func addSat(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// SundayTally is the cash side of a Sunday report: the two service offerings.
type SundayTally struct {
	Date   time.Time `json:"date"`
	First  Offering  `json:"first_offering"`
	Second Offering  `json:"second_offering"`
}

// GrandTotal sums both offerings.
func (t SundayTally) GrandTotal() int64 {
	return addSat(t.First.Total(), t.Second.Total())
}
