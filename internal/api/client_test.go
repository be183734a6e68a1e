package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"offertory/internal/core"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8001", "ftp://example.com", "http://"} {
		_, err := New(Options{BaseURL: raw})
		require.Error(t, err, raw)
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "9876543210", body["phone_number"])
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "tok",
			"token_type":   "bearer",
			"user":         map[string]any{"id": "u1", "phone_number": "9876543210", "role": "admin"},
		})
	}))

	creds, err := c.Login(context.Background(), "9876543210")
	require.NoError(t, err)
	require.Equal(t, "tok", creds.Token)
	require.True(t, creds.User.IsAdmin())
}

func TestWithTokens_SetsHeaders(t *testing.T) {
	var gotAuth, gotID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, []core.Collection{{ID: "c1"}})
	}))

	authed := c.WithTokens(TokenFunc(func() string { return "secret" }))
	cols, err := authed.ListCollections(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	require.Equal(t, "Bearer secret", gotAuth)
	_, err = uuid.Parse(gotID)
	require.NoError(t, err)

	// The original client stays anonymous.
	_, err = c.ListCollections(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantIs     error
		wantDetail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, ErrUnauthorized, "Could not validate credentials"},
		{"forbidden", http.StatusForbidden, `{"detail":"Admin access required"}`, ErrForbidden, "Admin access required"},
		{"not found", http.StatusNotFound, `{"detail":"Collection not found"}`, ErrNotFound, "Collection not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body"],"msg":"field required"},{"msg":"bad date"}]}`, nil, "field required; bad date"},
		{"plain text", http.StatusInternalServerError, "upstream exploded", nil, "upstream exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.GetCollection(context.Background(), "c1")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.wantDetail, apiErr.Detail)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			} else {
				require.False(t, errors.Is(err, ErrUnauthorized))
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	valid := true
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/verify-token", r.URL.Path)
		require.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": map[string]any{"id": "u1"}})
	}))

	status, err := c.VerifyToken(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, status.Valid)
	require.Equal(t, "u1", status.User.ID)

	valid = false
	status, err = c.VerifyToken(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, status.Valid)
}

func TestDashboardCache(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "30", r.URL.Query().Get("period_days"))
		writeJSON(w, http.StatusOK, map[string]any{"collections": map[string]any{"total_collections": 4}})
	}))
	ctx := context.Background()

	for range 3 {
		stats, err := c.DashboardStats(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, 4, stats.Collections.TotalCollections)
	}
	require.Equal(t, int32(1), hits.Load())

	c.Purge()
	_, err := c.DashboardStats(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestDashboardOverview(t *testing.T) {
	failVerse := false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"receipts": map[string]any{"total_receipts": 9}})
	})
	mux.HandleFunc("/api/dashboard/recent-collections", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "c1", "total_collection": "1500.00"}})
	})
	mux.HandleFunc("/api/dashboard/collection-statistics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total_collection": "2500"})
	})
	mux.HandleFunc("/api/bible-verse", func(w http.ResponseWriter, r *http.Request) {
		if failVerse {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "no verse"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"verse": "The Lord is my shepherd", "reference": "Psalm 23:1"})
	})
	c := newTestClient(t, mux)

	ov, err := c.DashboardOverview(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 9, ov.Stats.Receipts.TotalReceipts)
	require.Len(t, ov.Recent, 1)
	require.True(t, ov.Recent[0].TotalCollection.Equal(decimal.NewFromInt(1500)))
	require.True(t, ov.Statistics.TotalCollection.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, "Psalm 23:1", ov.Verse.Reference)

	c.Purge()
	failVerse = true
	_, err = c.DashboardOverview(context.Background(), 7)
	require.Error(t, err)
}

func TestGenerateSundayReport(t *testing.T) {
	var payload map[string]json.RawMessage
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sunday-reports/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		writeJSON(w, http.StatusOK, map[string]any{
			"grand_total":       1055,
			"docx_filename":     "sunday_2025-03-02.docx",
			"docx_download_url": "/api/sunday-reports/download/sunday_2025-03-02.docx",
		})
	}))

	report := SundayReport{
		Tally: core.SundayTally{
			Date:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			First:  core.OfferingForm{Denomination500: "2", Coins: "5", Denomination10: "-4"}.Normalize(),
			Second: core.OfferingForm{Denomination50: "1"}.Normalize(),
		},
		ChequeRecords: []ReportRecord{{Name: "A. Thomas", Amount: decimal.NewFromInt(2000), PaymentMethod: PaymentCheque}},
		Remarks:       "Harvest festival",
	}

	res, err := c.GenerateSundayReport(context.Background(), report)
	require.NoError(t, err)
	require.True(t, res.GrandTotal.Equal(decimal.NewFromInt(1055)))
	require.Equal(t, "sunday_2025-03-02.docx", res.DocxFilename)

	require.JSONEq(t, `"2025-03-02"`, string(payload["report_date"]))
	require.JSONEq(t, `{"denomination500":2,"denomination200":0,"denomination100":0,"denomination50":0,"denomination20":0,"denomination10":0,"coins":5}`,
		string(payload["first_offering"]))
	require.JSONEq(t, `[]`, string(payload["cash_records"]))
	require.JSONEq(t, `[]`, string(payload["pastor_signatories"]))
	require.Contains(t, string(payload["cheque_records"]), `"CHEQUE"`)

	_, err = c.GenerateSundayReport(context.Background(), SundayReport{})
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestDownloadReceiptPDF(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/receipts/r1/download", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4")
	}))

	body, err := c.DownloadReceiptPDF(context.Background(), "r1")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))
}

func TestListExpensesQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/expenses/", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "2025-01-01", q.Get("start_date"))
		require.Equal(t, "Maintenance", q.Get("category"))
		require.False(t, q.Has("end_date"))
		writeJSON(w, http.StatusOK, []core.Expense{{ID: "e1", Amount: decimal.NewFromInt(300)}})
	}))

	out, err := c.ListExpenses(context.Background(), ExpenseFilter{StartDate: "2025-01-01", Category: "Maintenance"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = c.CreateExpense(context.Background(), core.Expense{ExpenseDate: "bad"})
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestRateLimitHonoursContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, RateLimit: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, c.Health(ctx))
	require.Zero(t, hits.Load())

	require.NoError(t, c.Health(context.Background()))
	require.Equal(t, int32(1), hits.Load())
}

func TestDashboardCacheScopedByToken(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, core.BibleVerse{Reference: r.Header.Get("Authorization")})
	}))
	ctx := context.Background()
	alice := c.WithTokens(TokenFunc(func() string { return "alice" }))
	bob := c.WithTokens(TokenFunc(func() string { return "bob" }))

	v, err := alice.BibleVerse(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer alice", v.Reference)

	v, err = bob.BibleVerse(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer bob", v.Reference)
	require.Equal(t, int32(2), hits.Load())

	v, err = alice.BibleVerse(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer alice", v.Reference)
	require.Equal(t, int32(2), hits.Load())
}

func TestCollectionTrends(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dashboard/collection-trends", r.URL.Path)
		require.Equal(t, "12", r.URL.Query().Get("months"))
		writeJSON(w, http.StatusOK, map[string]any{"months": []string{"2025-01"}})
	}))

	trends, err := c.CollectionTrends(context.Background(), 0)
	require.NoError(t, err)
	require.Contains(t, trends, "months")
}

func TestExtractRecordsByDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/receipts/extract-by-date", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2025-03-02", body["invoiceDate"])
		_, _ = io.WriteString(w, `{"records": [
			{"ReceiptNo": 101, "Name": "A. Member", "Description": "Tithe", "Total": "1200.50"},
			{"ReceiptNo": "102", "Name": "B. Member", "Total": 300}
		]}`)
	})
	mux.HandleFunc("/api/receipts/extract-cheque-by-date", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"records": []}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	cash, err := c.ExtractCashRecords(ctx, "2025-03-02")
	require.NoError(t, err)
	require.Len(t, cash, 2)
	require.Equal(t, core.Entry("101"), cash[0].ReceiptNo)
	require.True(t, cash[0].Amount().Equal(decimal.RequireFromString("1200.50")))
	require.True(t, cash[1].Amount().Equal(decimal.NewFromInt(300)))

	lines := ReportRecords(cash, PaymentCash)
	require.Equal(t, PaymentCash, lines[0].PaymentMethod)
	require.Equal(t, "Tithe", lines[0].Description)

	cheques, err := c.ExtractChequeRecords(ctx, "2025-03-02")
	require.NoError(t, err)
	require.NotNil(t, cheques)
	require.Empty(t, cheques)

	_, err = c.ExtractCashRecords(ctx, "02/03/2025")
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestParseLooseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1500", "1500"},
		{" 12.5 INR", "12.5"},
		{".75", "0.75"},
		{"-40", "-40"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		got := ParseLooseAmount(tt.in)
		require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%q: got %s", tt.in, got)
	}
}

func TestExtractRecordsByRange(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/extract-records", r.URL.Path)
		require.Equal(t, "2025-03-01", r.URL.Query().Get("start_date"))
		require.Equal(t, "2025-03-31", r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, `[
			{"id": "extract-10", "receipt_no": "10", "name": "C", "payment_method": "CASH", "total": 50},
			{"id": "manual-1", "receipt_no": "1", "name": "X"},
			{"id": "extract-9", "receipt_no": "9", "name": "B", "payment_method": "CHEQUE", "total": "75"},
			{"id": "extract-a", "receipt_no": "A-1", "name": "D"}
		]`)
	}))

	out, err := c.ExtractRecordsByRange(context.Background(), "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, []string{"9", "10", "A-1"}, []string{string(out[0].ReceiptNo), string(out[1].ReceiptNo), string(out[2].ReceiptNo)})
	require.Equal(t, PaymentCheque, out[0].PaymentMethod)

	_, err = c.ExtractRecordsByRange(context.Background(), "2025-03-01", "")
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestCreateReconciliation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/reconciliation", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "date,amount\n", body["csv_file_content"])
		require.NotContains(t, body, "ending_balance")
		writeJSON(w, http.StatusOK, core.BankReconciliation{ID: "rec1", Status: "pending"})
	}))

	in := ReconciliationInput{
		StatementDate:        "2025-03-31",
		StatementPeriodStart: "2025-03-01",
		StatementPeriodEnd:   "2025-03-31",
		CSVFileContent:       "date,amount\n",
	}
	rec, err := c.CreateReconciliation(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "rec1", rec.ID)

	in.StatementPeriodEnd = "March"
	_, err = c.CreateReconciliation(context.Background(), in)
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestUploadBankStatement(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reconciliation/upload-csv", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "march.csv", hdr.Filename)
		data, _ := io.ReadAll(f)
		writeJSON(w, http.StatusOK, map[string]any{"rows": len(data)})
	}))

	res, err := c.UploadBankStatement(context.Background(), "/tmp/statements/march.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	require.EqualValues(t, 8, res["rows"])
}

func TestExpenseWorkflow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses/e1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, core.Expense{ID: "e1", Category: "Maintenance"})
		case http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, map[string]any{"vendor": "Hardware Store", "amount": "450"}, body)
			writeJSON(w, http.StatusOK, core.Expense{ID: "e1", Vendor: "Hardware Store", Amount: decimal.NewFromInt(450)})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/expenses/upload-document", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "R-7", r.FormValue("receipt_number"))
		require.Equal(t, "2025-03-02", r.FormValue("expense_date"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + hdr.Filename})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	e, err := c.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, "Maintenance", e.Category)

	amount := decimal.NewFromInt(450)
	e, err = c.UpdateExpense(ctx, "e1", ExpenseUpdate{Vendor: "Hardware Store", Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, "Hardware Store", e.Vendor)

	zero := decimal.Zero
	_, err = c.UpdateExpense(ctx, "e1", ExpenseUpdate{Amount: &zero})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	doc, err := c.UploadExpenseDocument(ctx, "bill.jpg", strings.NewReader("jpeg"), "R-7", "2025-03-02")
	require.NoError(t, err)
	require.Equal(t, "/uploads/bill.jpg", doc.URL)

	_, err = c.UploadExpenseDocument(ctx, "bill.jpg", strings.NewReader("jpeg"), "R-7", "")
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestDownloadInvoiceReceiptPDF(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/invoices/download-receipt/INV-42", r.URL.Path)
		_, _ = io.WriteString(w, "%PDF-1.7")
	}))

	body, err := c.DownloadInvoiceReceiptPDF(context.Background(), "INV-42")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))
}

func TestSundayReportPDF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sunday-reports/generate-pdf", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.JSONEq(t, `"2025-03-02"`, string(payload["report_date"]))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":          true,
			"pdf_filename":     "sunday.pdf",
			"pdf_download_url": "/api/sunday-reports/download/sunday.pdf",
		})
	})
	mux.HandleFunc("/api/sunday-reports/convert-docx-to-pdf", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["docx_filename"] == "broken.docx" {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "libreoffice missing"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":          true,
			"pdf_filename":     "converted.pdf",
			"pdf_download_url": "/api/sunday-reports/download/converted.pdf",
		})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	report := SundayReport{Tally: core.SundayTally{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}}
	pdf, err := c.GenerateSundayReportPDF(ctx, report)
	require.NoError(t, err)
	require.Equal(t, "sunday.pdf", pdf.PDFFilename)

	pdf, err = c.ConvertDocxToPDF(ctx, "sunday.docx")
	require.NoError(t, err)
	require.Equal(t, "/api/sunday-reports/download/converted.pdf", pdf.PDFDownloadURL)

	_, err = c.ConvertDocxToPDF(ctx, "broken.docx")
	require.ErrorIs(t, err, ErrNoPDF)
	require.Contains(t, err.Error(), "libreoffice missing")

	_, err = c.GenerateSundayReportPDF(ctx, SundayReport{})
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestCashRecords(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/cash-records", r.URL.Path)
		require.Equal(t, "2025-03-02", r.URL.Query().Get("invoice_date"))
		writeJSON(w, http.StatusOK, []ReportRecord{{Name: "A", Amount: decimal.NewFromInt(10), PaymentMethod: PaymentCash}})
	}))

	out, err := c.CashRecords(context.Background(), "2025-03-02")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, PaymentCash, out[0].PaymentMethod)
}
