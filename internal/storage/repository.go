package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"offertory/internal/core"
	"offertory/internal/session"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

var _ session.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs /readyz.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements session.Store
func (r *SQLiteRepository) Load(ctx context.Context) (core.Credentials, error) {
	var token, userJSON string
	err := r.db.QueryRowContext(ctx, `SELECT token, user_json FROM credentials WHERE id = 1`).Scan(&token, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Credentials{}, session.ErrNoCredentials
	}
	if err != nil {
		return core.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	creds := core.Credentials{Token: token}
	if err := json.Unmarshal([]byte(userJSON), &creds.User); err != nil {
		return core.Credentials{}, fmt.Errorf("decode stored user: %w", err)
	}
	return creds, nil
}

// Save implements session.Store
func (r *SQLiteRepository) Save(ctx context.Context, creds core.Credentials) error {
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credentials (id, token, user_json, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, user_json = excluded.user_json, updated_at = excluded.updated_at`,
		creds.Token, string(userJSON), r.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	slog.DebugContext(ctx, "Credentials saved", "user_id", creds.User.ID)
	return nil
}

// Clear implements session.Store
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// RecordNotification appends n to the notification log and returns its id.
func (r *SQLiteRepository) RecordNotification(ctx context.Context, n core.Notification) (int64, error) {
	received := n.ReceivedAt
	if received.IsZero() {
		received = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message, data, sent_at, received_at, published)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		n.UserID, n.Type, n.Message, string(n.Data), n.SentAt, received.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("record notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification id: %w", err)
	}

	slog.InfoContext(ctx, "Notification recorded",
		"id", id,
		"type", n.Type,
		"user_id", n.UserID)
	return id, nil
}

// RecentNotifications returns up to limit entries, newest first.
func (r *SQLiteRepository) RecentNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	return r.queryNotifications(ctx, `
		SELECT id, user_id, type, message, data, sent_at, received_at, published
		FROM notifications ORDER BY id DESC LIMIT ?`, limit)
}

// UnpublishedNotifications returns entries not yet forwarded to the broker,
// oldest first.
func (r *SQLiteRepository) UnpublishedNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	return r.queryNotifications(ctx, `
		SELECT id, user_id, type, message, data, sent_at, received_at, published
		FROM notifications WHERE published = 0 ORDER BY id ASC LIMIT ?`, limit)
}

// MarkPublished flags a notification as forwarded.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET published = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification published: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark notification published: id %d not found", id)
	}
	return nil
}

func (r *SQLiteRepository) queryNotifications(ctx context.Context, query string, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n         core.Notification
			data      string
			received  string
			published int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &data, &n.SentAt, &received, &published); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if data != "" {
			n.Data = json.RawMessage(data)
		}
		if t, err := time.Parse(timeLayout, received); err == nil {
			n.ReceivedAt = t
		}
		n.Published = published != 0
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// AppendTally implements sheets.TallyWriter
func (r *SQLiteRepository) AppendTally(ctx context.Context, t core.SundayTally) (string, error) {
	detail, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tally: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tallies (tally_date, first_total, second_total, grand_total, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Date.Format(core.DateLayout), t.First.Total(), t.Second.Total(), t.GrandTotal(),
		string(detail), r.now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("save tally: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("tally id: %w", err)
	}

	slog.InfoContext(ctx, "Sunday tally saved to SQLite",
		"id", id,
		"date", t.Date.Format(core.DateLayout),
		"grand_total", t.GrandTotal())
	return strconv.FormatInt(id, 10), nil
}

// TallyRecord is a stored tally summary.
type TallyRecord struct {
	ID          int64
	Date        string
	FirstTotal  int64
	SecondTotal int64
	GrandTotal  int64
}

// ListTallies returns stored tallies for the given date, or all when date is empty.
func (r *SQLiteRepository) ListTallies(ctx context.Context, date string) ([]TallyRecord, error) {
	query := `SELECT id, tally_date, first_total, second_total, grand_total FROM tallies`
	var args []any
	if date != "" {
		query += ` WHERE tally_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tallies: %w", err)
	}
	defer rows.Close()

	var out []TallyRecord
	for rows.Next() {
		var rec TallyRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.FirstTotal, &rec.SecondTotal, &rec.GrandTotal); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
