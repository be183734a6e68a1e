// Package services coordinates operations that span more than one backend.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"offertory/internal/core"
	"offertory/internal/sheets"
)

// TypeTallyRecorded is the notification type published after a tally is saved.
const TypeTallyRecorded = "tally_recorded"

type Publisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}

// TallyService saves a tally and announces it on the broker. It is itself a
// sheets.TallyWriter so the HTTP layer does not know about publishing.
type TallyService struct {
	writer sheets.TallyWriter
	pub    Publisher
	now    func() time.Time
}

var _ sheets.TallyWriter = (*TallyService)(nil)

// NewTallyService wraps writer. pub may be nil.
func NewTallyService(writer sheets.TallyWriter, pub Publisher) *TallyService {
	return &TallyService{writer: writer, pub: pub, now: time.Now}
}

type tallyEvent struct {
	Ref         string `json:"ref"`
	Date        string `json:"date"`
	FirstTotal  int64  `json:"first_total"`
	SecondTotal int64  `json:"second_total"`
	GrandTotal  int64  `json:"grand_total"`
	Words       string `json:"words"`
}

// AppendTally saves t and publishes a tally_recorded event. A publish failure
// is logged; the saved reference is still returned.
func (s *TallyService) AppendTally(ctx context.Context, t core.SundayTally) (string, error) {
	ref, err := s.writer.AppendTally(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save tally: %w", err)
	}

	if err := s.publish(ctx, ref, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish tally event", "ref", ref, "error", err)
	}
	return ref, nil
}

func (s *TallyService) publish(ctx context.Context, ref string, t core.SundayTally) error {
	if s.pub == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping tally event")
		return nil
	}

	words, err := core.Words(t.GrandTotal(), core.ReceiptWords)
	if err != nil {
		return fmt.Errorf("tally total in words: %w", err)
	}
	data, err := json.Marshal(tallyEvent{
		Ref:         ref,
		Date:        t.Date.Format(core.DateLayout),
		FirstTotal:  t.First.Total(),
		SecondTotal: t.Second.Total(),
		GrandTotal:  t.GrandTotal(),
		Words:       words,
	})
	if err != nil {
		return err
	}

	return s.pub.PublishNotification(ctx, core.Notification{
		Type:    TypeTallyRecorded,
		Message: fmt.Sprintf("Sunday tally for %s: %s", t.Date.Format(core.DateLayout), core.FormatINR(t.GrandTotal())),
		Data:    data,
		SentAt:  s.now().UTC().Format(time.RFC3339),
		ID:      int64(uuid.New().ID()),
	})
}
