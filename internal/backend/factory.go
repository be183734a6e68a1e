// Package backend assembles the tally writers a deployment is configured for.
package backend

import (
	"context"
	"errors"
	"fmt"

	"offertory/internal/config"
	"offertory/internal/log"
	"offertory/internal/sheets"
	gsheet "offertory/internal/sheets/google"
	"offertory/internal/sheets/memory"
	"offertory/internal/storage"
)

// BackendType names a place a tally can be written to.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type Config struct {
	Types  []BackendType
	SQLite *storage.SQLiteRepository
	Sheets gsheet.Options
}

// ConfigFromAppConfig writes to SQLite when a repository is available and
// to Google Sheets when a spreadsheet is configured. With neither, tallies
// are kept in memory.
func ConfigFromAppConfig(cfg *config.Config, repo *storage.SQLiteRepository) Config {
	out := Config{
		SQLite: repo,
		Sheets: gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			SheetBase:       cfg.GoogleSheetName,
		},
	}
	if repo != nil {
		out.Types = append(out.Types, SQLiteBackend)
	}
	if cfg.SheetsEnabled() {
		out.Types = append(out.Types, SheetsBackend)
	}
	if len(out.Types) == 0 {
		out.Types = []BackendType{MemoryBackend}
	}
	return out
}

type Factory struct {
	logger    *log.Logger
	newSheets func(ctx context.Context, opts gsheet.Options) (sheets.TallyWriter, error)
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{
		logger: logger,
		newSheets: func(ctx context.Context, opts gsheet.Options) (sheets.TallyWriter, error) {
			return gsheet.New(ctx, opts)
		},
	}
}

// CreateTallyWriter builds one writer per configured backend, in order.
func (f *Factory) CreateTallyWriter(ctx context.Context, cfg Config) (sheets.TallyWriter, error) {
	if len(cfg.Types) == 0 {
		return nil, errors.New("no tally backend configured")
	}

	var writers sheets.TallyWriters
	for _, t := range cfg.Types {
		if !t.IsValid() {
			return nil, fmt.Errorf("invalid backend type: %s", t)
		}
		switch t {
		case SQLiteBackend:
			if cfg.SQLite == nil {
				return nil, errors.New("sqlite backend requires a repository")
			}
			writers = append(writers, cfg.SQLite)
		case SheetsBackend:
			w, err := f.newSheets(ctx, cfg.Sheets)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
			}
			writers = append(writers, w)
		case MemoryBackend:
			writers = append(writers, memory.New())
		}
		f.logger.InfoContext(ctx, "Initialized tally backend", "backend", t.String())
	}

	if len(writers) == 1 {
		return writers[0], nil
	}
	return writers, nil
}
