package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

const (
	CollectionDraft     CollectionStatus = "draft"
	CollectionFinalized CollectionStatus = "finalized"
	CollectionArchived  CollectionStatus = "archived"
)

const (
	DonationCash           DonationType = "cash"
	DonationEnvelopeCash   DonationType = "envelope_cash"
	DonationEnvelopeCheque DonationType = "envelope_cheque"
	DonationOnline         DonationType = "online"
)

type (
	Role             string
	CollectionStatus string
	DonationType     string

	User struct {
		ID          string    `json:"id"`
		PhoneNumber string    `json:"phone_number"`
		Name        string    `json:"name,omitempty"`
		Role        Role      `json:"role"`
		IsActive    bool      `json:"is_active"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Credentials is what a session persists between runs.
	Credentials struct {
		Token string `json:"access_token"`
		User  User   `json:"user"`
	}

	// TokenStatus is the backend's answer to a token verification.
	TokenStatus struct {
		Valid bool `json:"valid"`
		User  User `json:"user"`
	}

	EnvelopeDonation struct {
		EnvelopeNumber string          `json:"envelope_number,omitempty"`
		DonorName      string          `json:"donor_name,omitempty"`
		DonorPhone     string          `json:"donor_phone,omitempty"`
		Amount         decimal.Decimal `json:"amount"`
		DonationType   DonationType    `json:"donation_type"`
		ChequeNumber   string          `json:"cheque_number,omitempty"`
		BankName       string          `json:"bank_name,omitempty"`
		Notes          string          `json:"notes,omitempty"`
	}

	Collection struct {
		ID                   string             `json:"id"`
		CollectionDate       string             `json:"collection_date"`
		TotalCash            decimal.Decimal    `json:"total_cash"`
		EnvelopeDonations    []EnvelopeDonation `json:"envelope_donations"`
		TotalEnvelopeCash    decimal.Decimal    `json:"total_envelope_cash"`
		TotalEnvelopeCheques decimal.Decimal    `json:"total_envelope_cheques"`
		TotalCollection      decimal.Decimal    `json:"total_collection"`
		Status               CollectionStatus   `json:"status"`
		CreatedBy            string             `json:"created_by"`
		CreatedAt            time.Time          `json:"created_at"`
		FinalizedAt          *time.Time         `json:"finalized_at,omitempty"`
		Notes                string             `json:"notes,omitempty"`
		ReceiptCount         int                `json:"receipt_count"`
	}

	Receipt struct {
		ID             string          `json:"id"`
		ReceiptNumber  string          `json:"receipt_number"`
		CollectionID   string          `json:"collection_id"`
		EnvelopeNumber string          `json:"envelope_number,omitempty"`
		DonorName      string          `json:"donor_name"`
		DonorPhone     string          `json:"donor_phone,omitempty"`
		DonationAmount decimal.Decimal `json:"donation_amount"`
		DonationType   string          `json:"donation_type"`
		DonationDate   string          `json:"donation_date"`
		ChequeNumber   string          `json:"cheque_number,omitempty"`
		BankName       string          `json:"bank_name,omitempty"`
		PDFURL         string          `json:"pdf_url,omitempty"`
		Status         string          `json:"status"`
		GeneratedAt    time.Time       `json:"generated_at"`
		Notes          string          `json:"notes,omitempty"`
	}

	BankReconciliation struct {
		ID                        string           `json:"id"`
		StatementDate             string           `json:"statement_date"`
		BankName                  string           `json:"bank_name,omitempty"`
		AccountNumber             string           `json:"account_number,omitempty"`
		StatementPeriodStart      string           `json:"statement_period_start"`
		StatementPeriodEnd        string           `json:"statement_period_end"`
		TotalDeposits             decimal.Decimal  `json:"total_deposits"`
		TotalWithdrawals          decimal.Decimal  `json:"total_withdrawals"`
		EndingBalance             *decimal.Decimal `json:"ending_balance,omitempty"`
		MatchedCount              int              `json:"matched_count"`
		UnmatchedDepositsCount    int              `json:"unmatched_deposits_count"`
		UnmatchedCollectionsCount int              `json:"unmatched_collections_count"`
		Status                    string           `json:"status"`
		CreatedAt                 time.Time        `json:"created_at"`
		CompletedAt               *time.Time       `json:"completed_at,omitempty"`
		Notes                     string           `json:"notes,omitempty"`
	}

	Expense struct {
		ID            string          `json:"id,omitempty"`
		ExpenseDate   string          `json:"expense_date"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method,omitempty"`
		ReceiptNumber string          `json:"receipt_number,omitempty"`
		Vendor        string          `json:"vendor,omitempty"`
		Notes         string          `json:"notes,omitempty"`
	}

	BibleVerse struct {
		Verse     string `json:"verse"`
		Reference string `json:"reference"`
		Date      string `json:"date"`
	}
)

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

// IsAdmin reports whether the user may run administrative operations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the phone number for members without a name.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.PhoneNumber
}

func (c Credentials) IsZero() bool {
	return c.Token == "" && c.User.ID == ""
}

func (e Expense) Validate() error {
	if _, err := time.Parse(DateLayout, e.ExpenseDate); err != nil {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
