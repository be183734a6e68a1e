package api

import (
	"cmp"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"offertory/internal/core"
)

// ExtractRecord is one row of the receipt extract the backend keeps for an
// invoice date. Field names follow the extract's column headers.
type ExtractRecord struct {
	ReceiptNo   core.Entry `json:"ReceiptNo"`
	Name        string     `json:"Name"`
	Description string     `json:"Description"`
	Total       core.Entry `json:"Total"`
}

type extractResponse struct {
	Records []ExtractRecord `json:"records"`
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseLooseAmount reads a leading decimal number and ignores the rest, so
// "1200.50 INR" is 1200.50. Text with no leading number is zero.
func ParseLooseAmount(s string) decimal.Decimal {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Amount is the record's total.
func (r ExtractRecord) Amount() decimal.Decimal {
	return ParseLooseAmount(string(r.Total))
}

// ReportRecord converts r to a Sunday report line.
func (r ExtractRecord) ReportRecord(method PaymentMethod) ReportRecord {
	return ReportRecord{
		Name:          r.Name,
		Description:   r.Description,
		Amount:        r.Amount(),
		PaymentMethod: method,
	}
}

// ReportRecords converts a batch of extract rows.
func ReportRecords(records []ExtractRecord, method PaymentMethod) []ReportRecord {
	out := make([]ReportRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.ReportRecord(method))
	}
	return out
}

// ExtractCashRecords returns the cash receipts issued on invoiceDate.
func (c *Client) ExtractCashRecords(ctx context.Context, invoiceDate string) ([]ExtractRecord, error) {
	return c.extractByDate(ctx, "/api/receipts/extract-by-date", invoiceDate)
}

// ExtractChequeRecords returns the cheque receipts issued on invoiceDate.
func (c *Client) ExtractChequeRecords(ctx context.Context, invoiceDate string) ([]ExtractRecord, error) {
	return c.extractByDate(ctx, "/api/receipts/extract-cheque-by-date", invoiceDate)
}

func (c *Client) extractByDate(ctx context.Context, path, invoiceDate string) ([]ExtractRecord, error) {
	if err := validDate(invoiceDate); err != nil {
		return nil, err
	}
	var out extractResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		body:   map[string]string{"invoiceDate": invoiceDate},
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonNil(out.Records), nil
}

// CashRecords lists cash lines for the Sunday report on an invoice date.
func (c *Client) CashRecords(ctx context.Context, invoiceDate string) ([]ReportRecord, error) {
	var out []ReportRecord
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/collections/cash-records",
		query:  url.Values{"invoice_date": {invoiceDate}},
	}, &out)
	return out, err
}

// RangeRecord is a receipt row returned by the date range extract.
type RangeRecord struct {
	ID            string        `json:"id"`
	InvoiceDate   string        `json:"invoice_date"`
	ReceiptNo     core.Entry    `json:"receipt_no"`
	Name          string        `json:"name"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Total         core.Entry    `json:"total"`
	Description   string        `json:"description"`
}

// ExtractRecordsByRange returns the extract rows between two YYYY-MM-DD dates
// ordered by receipt number. Rows that are not extract entries are dropped.
func (c *Client) ExtractRecordsByRange(ctx context.Context, start, end string) ([]RangeRecord, error) {
	if err := validDate(start); err != nil {
		return nil, err
	}
	if err := validDate(end); err != nil {
		return nil, err
	}
	var all []RangeRecord
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/collections/extract-records",
		query:  url.Values{"start_date": {start}, "end_date": {end}},
	}, &all)
	if err != nil {
		return nil, err
	}

	out := make([]RangeRecord, 0, len(all))
	for _, r := range all {
		if strings.HasPrefix(r.ID, "extract") {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b RangeRecord) int {
		return compareReceiptNo(string(a.ReceiptNo), string(b.ReceiptNo))
	})
	return out, nil
}

// compareReceiptNo orders numeric receipt numbers by value and falls back to
// plain string order otherwise.
func compareReceiptNo(a, b string) int {
	na, errA := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	nb, errB := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
