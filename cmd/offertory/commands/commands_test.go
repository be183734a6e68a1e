package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"offertory/internal/api"
	"offertory/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", t.TempDir() + "/none.env"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestWordsCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"words", "1234567"}, want: "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven only\n"},
		{args: []string{"words", "--style", "rupees", "100000"}, want: "One Lakh Rupees\n"},
		{args: []string{"words", "0"}, want: "Zero only\n"},
		{args: []string{"words", "--", "-5"}, wantErr: true},
		{args: []string{"words", "12x"}, wantErr: true},
		{args: []string{"words", "--style", "roman", "5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got output %q", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestTallyCommand(t *testing.T) {
	out, err := run(t, "tally", "--date", "2025-03-02", "--first", "500=2,100=3,coins=5", "--second", "50=4,10=abc")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	for _, want := range []string{"2025-03-02", "₹ 1,305", "₹ 200", "Grand total: ₹ 1,505 (One Thousand Five Hundred Five only)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "tally", "--date", "02/03/2025"); err == nil {
		t.Error("expected error for bad date")
	}
	if _, err := run(t, "tally", "--first", "5=1"); err == nil {
		t.Error("expected error for unknown denomination")
	}
}

func TestParseOffering(t *testing.T) {
	tests := []struct {
		in      string
		total   int64
		wantErr bool
	}{
		{in: "", total: 0},
		{in: "500=1, 200=1 ,100=1,50=1,20=1,10=1,coins=3", total: 883},
		{in: "COINS=7", total: 7},
		{in: "100=-2", total: 0},
		{in: "100", wantErr: true},
		{in: "1=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			form, err := parseOffering(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOffering(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil {
				if got := core.CalculateTotal(form); got != tt.total {
					t.Errorf("total = %d, want %d", got, tt.total)
				}
			}
		})
	}
}

type fakeExtracts struct {
	cash      []api.ExtractRecord
	chequeErr error
	dates     []string
}

func (f *fakeExtracts) ExtractCashRecords(_ context.Context, date string) ([]api.ExtractRecord, error) {
	f.dates = append(f.dates, date)
	return f.cash, nil
}

func (f *fakeExtracts) ExtractChequeRecords(_ context.Context, date string) ([]api.ExtractRecord, error) {
	f.dates = append(f.dates, date)
	return nil, f.chequeErr
}

func TestBuildReportLoadsExtracts(t *testing.T) {
	src := &fakeExtracts{
		cash: []api.ExtractRecord{
			{ReceiptNo: "101", Name: "A. Member", Description: "Tithe", Total: "1500.00"},
			{ReceiptNo: "102", Name: "B. Member", Description: "Harvest", Total: "abc"},
		},
		chequeErr: errors.New("backend down"),
	}
	tally, err := buildTally("2025-03-02", "500=2", "")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	r := buildReport(context.Background(), src, &out, tally, "ok")

	if len(src.dates) != 2 || src.dates[0] != "2025-03-02" || src.dates[1] != "2025-03-02" {
		t.Fatalf("extract dates = %v", src.dates)
	}
	if len(r.CashRecords) != 2 {
		t.Fatalf("cash records = %+v", r.CashRecords)
	}
	first := r.CashRecords[0]
	if first.Name != "A. Member" || first.PaymentMethod != api.PaymentCash || !first.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("unexpected first record %+v", first)
	}
	if !r.CashRecords[1].Amount.IsZero() {
		t.Errorf("unparseable total = %s, want 0", r.CashRecords[1].Amount)
	}
	if len(r.ChequeRecords) != 0 {
		t.Errorf("cheque records = %+v, want none", r.ChequeRecords)
	}
	if r.Remarks != "ok" || r.Tally.First.Total() != 1000 {
		t.Errorf("unexpected report %+v", r)
	}
	if !strings.Contains(out.String(), "Loaded 2 cash records") || !strings.Contains(out.String(), "No cheque records") {
		t.Errorf("output = %q", out.String())
	}
}
