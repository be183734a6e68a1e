package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"offertory/internal/core"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCheque PaymentMethod = "CHEQUE"
)

// ReportRecord is one cash or cheque line on the Sunday report.
type ReportRecord struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

type Signatory struct {
	Title     string `json:"title,omitempty"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Date      string `json:"date"`
}

// SundayReport holds what the treasurer fills in after the Sunday count.
type SundayReport struct {
	Tally             core.SundayTally
	CashRecords       []ReportRecord
	ChequeRecords     []ReportRecord
	SundaySignatories []Signatory
	PastorSignatories []Signatory
	Remarks           string
}

// SundayReportResult points at the generated document.
type SundayReportResult struct {
	GrandTotal      decimal.Decimal `json:"grand_total"`
	DocxFilename    string          `json:"docx_filename"`
	DocxDownloadURL string          `json:"docx_download_url"`
}

type offeringPayload struct {
	Denomination500 int64 `json:"denomination500"`
	Denomination200 int64 `json:"denomination200"`
	Denomination100 int64 `json:"denomination100"`
	Denomination50  int64 `json:"denomination50"`
	Denomination20  int64 `json:"denomination20"`
	Denomination10  int64 `json:"denomination10"`
	Coins           int64 `json:"coins"`
}

type sundayReportPayload struct {
	ReportDate        string          `json:"report_date"`
	FirstOffering     offeringPayload `json:"first_offering"`
	SecondOffering    offeringPayload `json:"second_offering"`
	CashRecords       []ReportRecord  `json:"cash_records"`
	ChequeRecords     []ReportRecord  `json:"cheque_records"`
	SundaySignatories []Signatory     `json:"sunday_signatories"`
	PastorSignatories []Signatory     `json:"pastor_signatories"`
	Remarks           string          `json:"remarks"`
}

func offeringFrom(o core.Offering) offeringPayload {
	return offeringPayload{
		Denomination500: o.Count(core.Note500),
		Denomination200: o.Count(core.Note200),
		Denomination100: o.Count(core.Note100),
		Denomination50:  o.Count(core.Note50),
		Denomination20:  o.Count(core.Note20),
		Denomination10:  o.Count(core.Note10),
		Coins:           o.Coins,
	}
}

func (r SundayReport) payload() sundayReportPayload {
	return sundayReportPayload{
		ReportDate:        r.Tally.Date.Format(core.DateLayout),
		FirstOffering:     offeringFrom(r.Tally.First),
		SecondOffering:    offeringFrom(r.Tally.Second),
		CashRecords:       nonNil(r.CashRecords),
		ChequeRecords:     nonNil(r.ChequeRecords),
		SundaySignatories: nonNil(r.SundaySignatories),
		PastorSignatories: nonNil(r.PastorSignatories),
		Remarks:           r.Remarks,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (c *Client) GenerateSundayReport(ctx context.Context, r SundayReport) (SundayReportResult, error) {
	var out SundayReportResult
	if r.Tally.Date.IsZero() {
		return out, core.ErrInvalidDate
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/sunday-reports/generate", body: r.payload()}, &out)
	return out, err
}

// SundayReportPDF points at a rendered PDF.
type SundayReportPDF struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	PDFFilename    string `json:"pdf_filename"`
	PDFDownloadURL string `json:"pdf_download_url"`
}

var ErrNoPDF = errors.New("backend generated no pdf")

func (p SundayReportPDF) check() error {
	if p.PDFFilename == "" || p.PDFDownloadURL == "" {
		if p.Message != "" {
			return fmt.Errorf("%w: %s", ErrNoPDF, p.Message)
		}
		return ErrNoPDF
	}
	return nil
}

// GenerateSundayReportPDF renders the report straight to PDF.
func (c *Client) GenerateSundayReportPDF(ctx context.Context, r SundayReport) (SundayReportPDF, error) {
	var out SundayReportPDF
	if r.Tally.Date.IsZero() {
		return out, core.ErrInvalidDate
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/sunday-reports/generate-pdf", body: r.payload()}, &out); err != nil {
		return out, err
	}
	return out, out.check()
}

// ConvertDocxToPDF converts a report generated by GenerateSundayReport.
func (c *Client) ConvertDocxToPDF(ctx context.Context, docxFilename string) (SundayReportPDF, error) {
	var out SundayReportPDF
	if docxFilename == "" {
		return out, errors.New("empty docx filename")
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/sunday-reports/convert-docx-to-pdf",
		body:   map[string]string{"docx_filename": docxFilename},
	}, &out)
	if err != nil {
		return out, err
	}
	return out, out.check()
}

// DownloadSundayReport streams a generated report. downloadURL may be the
// relative path returned by GenerateSundayReport.
func (c *Client) DownloadSundayReport(ctx context.Context, downloadURL string) (io.ReadCloser, error) {
	return c.send(ctx, request{method: http.MethodGet, path: downloadURL})
}
