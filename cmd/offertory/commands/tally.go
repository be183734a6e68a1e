package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"offertory/internal/api"
	"offertory/internal/core"
)

func tallyCmd(a *app) *cobra.Command {
	var (
		date, first, second, remarks, output string
		export, report, pdf                  bool
	)
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Count the two Sunday offerings",
		Example: `  offertory tally --date 2025-03-02 --first 500=2,100=3,coins=5 --second 50=4
  offertory tally --first 200=1 --export --report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := buildTally(date, first, second)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printTally(out, t); err != nil {
				return err
			}

			if export {
				if err := a.open(ctx); err != nil {
					return err
				}
				w, release, err := a.tallyWriter(ctx)
				if err != nil {
					return err
				}
				defer release()
				ref, err := w.AppendTally(ctx, t)
				if err != nil {
					return fmt.Errorf("export tally: %w", err)
				}
				fmt.Fprintf(out, "Exported: %s\n", ref)
			}

			if report {
				if err := a.requireUser(ctx); err != nil {
					return err
				}
				r := buildReport(ctx, a.authed, out, t, remarks)
				res, err := a.authed.GenerateSundayReport(ctx, r)
				if err != nil {
					return fmt.Errorf("generate report: %w", err)
				}
				fmt.Fprintf(out, "Report: %s (%s)\n", res.DocxFilename, core.FormatAmountINR(res.GrandTotal))
				download := res.DocxDownloadURL
				if pdf {
					p, err := a.authed.ConvertDocxToPDF(ctx, res.DocxFilename)
					if err != nil {
						return fmt.Errorf("convert report: %w", err)
					}
					fmt.Fprintf(out, "PDF: %s\n", p.PDFFilename)
					download = p.PDFDownloadURL
				}
				if output != "" {
					if err := saveReport(cmd, a, download, output); err != nil {
						return err
					}
					fmt.Fprintf(out, "Saved: %s\n", output)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "service date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&first, "first", "", "first offering counts, e.g. 500=2,100=3,coins=5")
	cmd.Flags().StringVar(&second, "second", "", "second offering counts")
	cmd.Flags().BoolVar(&export, "export", false, "append the tally to the configured backends")
	cmd.Flags().BoolVar(&report, "report", false, "generate the Sunday report document on the server")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "convert the generated report to PDF")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks for the Sunday report")
	cmd.Flags().StringVarP(&output, "output", "o", "", "save the generated report to this path")
	return cmd
}

func buildTally(date, first, second string) (core.SundayTally, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		d, err := time.Parse(core.DateLayout, date)
		if err != nil {
			return core.SundayTally{}, core.ErrInvalidDate
		}
		day = d
	}
	f, err := parseOffering(first)
	if err != nil {
		return core.SundayTally{}, fmt.Errorf("--first: %w", err)
	}
	s, err := parseOffering(second)
	if err != nil {
		return core.SundayTally{}, fmt.Errorf("--second: %w", err)
	}
	return core.SundayTally{Date: day, First: f.Normalize(), Second: s.Normalize()}, nil
}

// parseOffering reads "500=2,100=3,coins=5". Counts are taken as typed and
// normalized later, so "500=abc" counts as zero.
func parseOffering(s string) (core.OfferingForm, error) {
	var form core.OfferingForm
	if strings.TrimSpace(s) == "" {
		return form, nil
	}
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return form, fmt.Errorf("expected denomination=count, got %q", part)
		}
		entry := core.Entry(strings.TrimSpace(value))
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "500":
			form.Denomination500 = entry
		case "200":
			form.Denomination200 = entry
		case "100":
			form.Denomination100 = entry
		case "50":
			form.Denomination50 = entry
		case "20":
			form.Denomination20 = entry
		case "10":
			form.Denomination10 = entry
		case "coins":
			form.Coins = entry
		default:
			return form, fmt.Errorf("unknown denomination %q", key)
		}
	}
	return form, nil
}

func printTally(w io.Writer, t core.SundayTally) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date\t%s\t\n", t.Date.Format(core.DateLayout))
	fmt.Fprintln(tw, "\tFirst\tSecond\t")
	for _, d := range core.Denominations {
		fmt.Fprintf(tw, "%d x\t%d\t%d\t\n", int64(d), t.First.Count(d), t.Second.Count(d))
	}
	fmt.Fprintf(tw, "Coins\t%d\t%d\t\n", t.First.Coins, t.Second.Coins)
	fmt.Fprintf(tw, "Total\t%s\t%s\t\n", core.FormatINR(t.First.Total()), core.FormatINR(t.Second.Total()))
	if err := tw.Flush(); err != nil {
		return err
	}

	words, err := core.Words(t.GrandTotal(), core.ReceiptWords)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Grand total: %s (%s)\n", core.FormatINR(t.GrandTotal()), words)
	return err
}

// extractSource reads the receipt extracts for an invoice date.
type extractSource interface {
	ExtractCashRecords(ctx context.Context, invoiceDate string) ([]api.ExtractRecord, error)
	ExtractChequeRecords(ctx context.Context, invoiceDate string) ([]api.ExtractRecord, error)
}

// buildReport fills the cash and cheque lines from the receipt extracts for
// the tally date. A failed extract leaves its section empty.
func buildReport(ctx context.Context, src extractSource, w io.Writer, t core.SundayTally, remarks string) api.SundayReport {
	date := t.Date.Format(core.DateLayout)
	r := api.SundayReport{Tally: t, Remarks: remarks}

	for _, section := range []struct {
		label  string
		fetch  func(context.Context, string) ([]api.ExtractRecord, error)
		method api.PaymentMethod
		dst    *[]api.ReportRecord
	}{
		{"cash", src.ExtractCashRecords, api.PaymentCash, &r.CashRecords},
		{"cheque", src.ExtractChequeRecords, api.PaymentCheque, &r.ChequeRecords},
	} {
		records, err := section.fetch(ctx, date)
		if err != nil {
			slog.WarnContext(ctx, "Failed to load receipt extract", "kind", section.label, "date", date, "error", err)
			fmt.Fprintf(w, "No %s records: %v\n", section.label, err)
			continue
		}
		*section.dst = api.ReportRecords(records, section.method)
		fmt.Fprintf(w, "Loaded %d %s records for %s\n", len(records), section.label, date)
	}
	return r
}

func saveReport(cmd *cobra.Command, a *app, url, path string) error {
	body, err := a.authed.DownloadSundayReport(cmd.Context(), url)
	if err != nil {
		return fmt.Errorf("download report: %w", err)
	}
	defer body.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
