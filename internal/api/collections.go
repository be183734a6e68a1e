package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"offertory/internal/core"
)

// CollectionInput is the body for creating or updating a collection.
type CollectionInput struct {
	CollectionDate    string                  `json:"collection_date"`
	TotalCash         decimal.Decimal         `json:"total_cash"`
	EnvelopeDonations []core.EnvelopeDonation `json:"envelope_donations"`
	Notes             string                  `json:"notes,omitempty"`
	Status            core.CollectionStatus   `json:"status,omitempty"`
}

// SummaryStats is the backend's free-form summary for a date range.
type SummaryStats map[string]any

func (c *Client) ListCollections(ctx context.Context, limit int) ([]core.Collection, error) {
	var out []core.Collection
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/collections", query: limitQuery(limit)}, &out)
	return out, err
}

func (c *Client) GetCollection(ctx context.Context, id string) (core.Collection, error) {
	var out core.Collection
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/collections/" + url.PathEscape(id)}, &out)
	return out, err
}

func (c *Client) CreateCollection(ctx context.Context, in CollectionInput) (core.Collection, error) {
	var out core.Collection
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/collections", body: in}, &out)
	if err == nil {
		c.Purge()
	}
	return out, err
}

func (c *Client) UpdateCollection(ctx context.Context, id string, in CollectionInput) (core.Collection, error) {
	var out core.Collection
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/collections/" + url.PathEscape(id), body: in}, &out)
	if err == nil {
		c.Purge()
	}
	return out, err
}

// CollectionSummary returns backend statistics between two YYYY-MM-DD dates.
// Empty bounds are omitted.
func (c *Client) CollectionSummary(ctx context.Context, start, end string) (SummaryStats, error) {
	var out SummaryStats
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/collections/summary/stats", query: rangeQuery(start, end)}, &out)
	return out, err
}

// ChequeRecords lists cheques deposited on an invoice date for the Sunday report.
func (c *Client) ChequeRecords(ctx context.Context, invoiceDate string) ([]ReportRecord, error) {
	var out []ReportRecord
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/collections/cheque-records",
		query:  url.Values{"invoice_date": {invoiceDate}},
	}, &out)
	return out, err
}

func (c *Client) GenerateReceipts(ctx context.Context, collectionID string, all bool) ([]core.Receipt, error) {
	var out []core.Receipt
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/receipts/generate",
		body: map[string]any{
			"collection_id": collectionID,
			"generate_all":  all,
		},
	}, &out)
	return out, err
}

func (c *Client) ReceiptsForCollection(ctx context.Context, collectionID string) ([]core.Receipt, error) {
	var out []core.Receipt
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/receipts/collection/" + url.PathEscape(collectionID)}, &out)
	return out, err
}

func (c *Client) GetReceipt(ctx context.Context, id string) (core.Receipt, error) {
	var out core.Receipt
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/receipts/" + url.PathEscape(id)}, &out)
	return out, err
}

// DownloadReceiptPDF streams the receipt PDF. The caller closes it.
func (c *Client) DownloadReceiptPDF(ctx context.Context, id string) (io.ReadCloser, error) {
	return c.send(ctx, request{method: http.MethodGet, path: "/api/receipts/" + url.PathEscape(id) + "/download"})
}

func (c *Client) ListReconciliations(ctx context.Context, limit int) ([]core.BankReconciliation, error) {
	var out []core.BankReconciliation
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/reconciliation", query: limitQuery(limit)}, &out)
	return out, err
}

func (c *Client) GetReconciliation(ctx context.Context, id string) (core.BankReconciliation, error) {
	var out core.BankReconciliation
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/reconciliation/" + url.PathEscape(id)}, &out)
	return out, err
}

func validDate(s string) error {
	if _, err := time.Parse(core.DateLayout, s); err != nil {
		return core.ErrInvalidDate
	}
	return nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

func rangeQuery(start, end string) url.Values {
	q := url.Values{}
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}
	return q
}

// ReconciliationInput is the body for starting a bank reconciliation.
type ReconciliationInput struct {
	StatementDate        string           `json:"statement_date"`
	BankName             string           `json:"bank_name,omitempty"`
	AccountNumber        string           `json:"account_number,omitempty"`
	StatementPeriodStart string           `json:"statement_period_start"`
	StatementPeriodEnd   string           `json:"statement_period_end"`
	EndingBalance        *decimal.Decimal `json:"ending_balance,omitempty"`
	CSVFileContent       string           `json:"csv_file_content"`
	Notes                string           `json:"notes,omitempty"`
}

func (in ReconciliationInput) validate() error {
	for _, d := range []string{in.StatementDate, in.StatementPeriodStart, in.StatementPeriodEnd} {
		if err := validDate(d); err != nil {
			return err
		}
	}
	if in.CSVFileContent == "" {
		return errors.New("empty bank statement")
	}
	return nil
}

func (c *Client) CreateReconciliation(ctx context.Context, in ReconciliationInput) (core.BankReconciliation, error) {
	if err := in.validate(); err != nil {
		return core.BankReconciliation{}, err
	}
	var out core.BankReconciliation
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/reconciliation", body: in}, &out)
	if err == nil {
		c.Purge()
	}
	return out, err
}

// StatementUpload is the backend's parse result for an uploaded statement.
type StatementUpload map[string]any

// UploadBankStatement sends a CSV bank statement for parsing.
func (c *Client) UploadBankStatement(ctx context.Context, filename string, file io.Reader) (StatementUpload, error) {
	var out StatementUpload
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/reconciliation/upload-csv",
		upload: &upload{field: "file", filename: filename, file: file},
	}, &out)
	return out, err
}

// DownloadInvoiceReceiptPDF streams the PDF for a manually issued receipt.
func (c *Client) DownloadInvoiceReceiptPDF(ctx context.Context, receiptNumber string) (io.ReadCloser, error) {
	return c.send(ctx, request{method: http.MethodGet, path: "/api/invoices/download-receipt/" + url.PathEscape(receiptNumber)})
}
