package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"offertory/internal/core"
	ports "offertory/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetBase is the tab name without its year prefix.
const DefaultSheetBase = "Offerings"

// Header row written to an empty tab.
var header = []any{"Date", "Service", "500", "200", "100", "50", "20", "10", "Coins", "Total"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Offerings"); the tally date's year is prefixed.
	sheetBase string
}

var _ ports.TallyWriter = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	SheetBase       string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetBase), nil
}

// NewWithService wraps an existing service. Tests point it at a fake endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = DefaultSheetBase
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read credentials file", "path", opts.CredentialsFile, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendTally writes one row per offering to "<year> <base>" and returns the
// A1 range that was written.
func (c *Client) AppendTally(ctx context.Context, t core.SundayTally) (string, error) {
	if t.Date.IsZero() {
		return "", core.ErrInvalidDate
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, t.Date.Year())

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}

	var rows [][]any
	nextRow := len(resp.Values) + 1
	if nextRow == 1 {
		rows = append(rows, header)
	}
	date := t.Date.Format(core.DateLayout)
	rows = append(rows,
		offeringRow(date, "First Offering", t.First),
		offeringRow(date, "Second Offering", t.Second))
	lastRow := nextRow + len(rows) - 1

	rng := fmt.Sprintf("%s!A%d:J%d", sheet, nextRow, lastRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Sunday tally written to sheet",
		"range", rng,
		"grand_total", t.GrandTotal())
	return rng, nil
}

func offeringRow(date, service string, o core.Offering) []any {
	row := make([]any, 0, len(header))
	row = append(row, date, service)
	for _, d := range core.Denominations {
		row = append(row, o.Count(d))
	}
	return append(row, o.Coins, o.Total())
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
