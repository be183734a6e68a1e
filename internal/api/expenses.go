package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"offertory/internal/core"
)

type ExpenseFilter struct {
	StartDate string
	EndDate   string
	Category  string
}

func (f ExpenseFilter) query() url.Values {
	q := rangeQuery(f.StartDate, f.EndDate)
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	return q
}

func (c *Client) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	var out []core.Expense
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/expenses/", query: f.query()}, &out)
	return out, err
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/expenses/", body: e}, &out)
	if err == nil {
		c.Purge()
	}
	return out, err
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	err := c.do(ctx, request{method: http.MethodDelete, path: "/api/expenses/" + url.PathEscape(id)}, nil)
	if err == nil {
		c.Purge()
	}
	return err
}

func (c *Client) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var out core.Expense
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/expenses/" + url.PathEscape(id)}, &out)
	return out, err
}

// ExpenseUpdate changes only the fields that are set.
type ExpenseUpdate struct {
	ExpenseDate   string           `json:"expense_date,omitempty"`
	Category      string           `json:"category,omitempty"`
	Description   string           `json:"description,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	ReceiptNumber string           `json:"receipt_number,omitempty"`
	Vendor        string           `json:"vendor,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

func (u ExpenseUpdate) validate() error {
	if u.ExpenseDate != "" {
		if err := validDate(u.ExpenseDate); err != nil {
			return err
		}
	}
	if u.Amount != nil && !u.Amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	return nil
}

func (c *Client) UpdateExpense(ctx context.Context, id string, u ExpenseUpdate) (core.Expense, error) {
	if err := u.validate(); err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/expenses/" + url.PathEscape(id), body: u}, &out)
	if err == nil {
		c.Purge()
	}
	return out, err
}

// ExpenseDocument is where the backend stored an uploaded bill or voucher.
type ExpenseDocument struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// UploadExpenseDocument attaches a scanned bill to the expense identified by
// receiptNumber and expenseDate.
func (c *Client) UploadExpenseDocument(ctx context.Context, filename string, file io.Reader, receiptNumber, expenseDate string) (ExpenseDocument, error) {
	if err := validDate(expenseDate); err != nil {
		return ExpenseDocument{}, err
	}
	var out ExpenseDocument
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/expenses/upload-document",
		upload: &upload{
			field:    "file",
			filename: filename,
			file:     file,
			fields:   [][2]string{{"receipt_number", receiptNumber}, {"expense_date", expenseDate}},
		},
	}, &out)
	return out, err
}
