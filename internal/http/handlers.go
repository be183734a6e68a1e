package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"offertory/internal/core"
	"offertory/internal/log"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("database unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

type wordsResponse struct {
	Amount string `json:"amount"`
	Words  string `json:"words"`
}

// handleWords renders ?amount= in words. style is "receipt" (default) or "rupees".
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()

	style, ok := parseWordStyle(q.Get("style"))
	if !ok {
		BadRequestError("style must be 'receipt' or 'rupees'").Write(w)
		return
	}

	raw := sanitizeInput(q.Get("amount"))
	if strings.HasPrefix(raw, "-") {
		UnprocessableEntityError(core.ErrNegativeAmount.Error()).Write(w)
		return
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	words, err := core.AmountInWords(amount, style)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(wordsResponse{Amount: amount.StringFixed(2), Words: words}).Write(w)
}

func parseWordStyle(s string) (core.WordStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "receipt":
		return core.ReceiptWords, true
	case "rupees":
		return core.RupeeWords, true
	default:
		return core.WordStyle{}, false
	}
}

type totalResponse struct {
	Total     int64  `json:"total"`
	Formatted string `json:"formatted"`
	Words     string `json:"words"`
}

func newTotalResponse(total int64) (totalResponse, error) {
	words, err := core.Words(total, core.ReceiptWords)
	if err != nil {
		return totalResponse{}, fmt.Errorf("total %d in words: %w", total, err)
	}
	return totalResponse{Total: total, Formatted: core.FormatINR(total), Words: words}, nil
}

// handleOfferingTotal is the live total shown while counts are typed.
func (s *Server) handleOfferingTotal(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	resp, err := newTotalResponse(core.CalculateTotal(p.ParseOfferingForm("")))
	if err != nil {
		log.LogError(r.Context(), "Failed to render offering total", err, log.ComponentHTTP, log.OpCalculate, nil)
		InternalServerError("failed to render total").Write(w)
		return
	}
	NewJSONResponse().Body(resp).Write(w)
}

type tallyRequest struct {
	Date           string            `json:"date"`
	FirstOffering  core.OfferingForm `json:"first_offering"`
	SecondOffering core.OfferingForm `json:"second_offering"`
}

type tallyResponse struct {
	Date       string        `json:"date"`
	First      totalResponse `json:"first_offering"`
	Second     totalResponse `json:"second_offering"`
	GrandTotal totalResponse `json:"grand_total"`
	Exported   bool          `json:"exported"`
	Ref        string        `json:"ref,omitempty"`
}

// handleSundayTally totals both offerings and exports the tally when a
// writer is configured.
func (s *Server) handleSundayTally(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	req, err := parseTallyRequest(NewRequestBodyParser(r))
	if err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	date, err := time.Parse(core.DateLayout, req.Date)
	if err != nil {
		UnprocessableEntityError(core.ErrInvalidDate.Error()).Write(w)
		return
	}

	tally := core.SundayTally{
		Date:   date,
		First:  req.FirstOffering.Normalize(),
		Second: req.SecondOffering.Normalize(),
	}
	resp := tallyResponse{Date: req.Date}
	for _, part := range []struct {
		dst   *totalResponse
		total int64
	}{
		{&resp.First, tally.First.Total()},
		{&resp.Second, tally.Second.Total()},
		{&resp.GrandTotal, tally.GrandTotal()},
	} {
		if *part.dst, err = newTotalResponse(part.total); err != nil {
			log.LogError(ctx, "Failed to render tally total", err, log.ComponentHTTP, log.OpCalculate, nil)
			InternalServerError("failed to render total").Write(w)
			return
		}
	}

	if s.deps.Tally != nil {
		ref, err := s.deps.Tally.AppendTally(ctx, tally)
		if err != nil {
			log.LogError(ctx, "Failed to export tally", err, log.ComponentSheets, log.OpExport, nil)
			InternalServerError("failed to export tally").Write(w)
			return
		}
		resp.Exported, resp.Ref = true, ref
		log.FromContext(ctx).InfoContext(ctx, "Sunday tally exported",
			log.FieldTotal, tally.GrandTotal(),
			"ref", ref)
	}

	NewJSONResponse().Status(http.StatusCreated).Body(resp).Write(w)
}

func parseTallyRequest(p *RequestBodyParser) (tallyRequest, error) {
	if err := p.Parse(); err != nil {
		return tallyRequest{}, err
	}
	if p.IsJSON() {
		var req tallyRequest
		err := p.Decode(&req)
		return req, err
	}
	return tallyRequest{
		Date:           p.Get("date"),
		FirstOffering:  p.ParseOfferingForm("first_"),
		SecondOffering: p.ParseOfferingForm("second_"),
	}, nil
}

type notificationsResponse struct {
	Status       string              `json:"status"`
	UserID       string              `json:"user_id,omitempty"`
	Attempt      int                 `json:"attempt"`
	Reconnecting bool                `json:"reconnecting"`
	Recent       []core.Notification `json:"recent"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.deps.Notifier == nil {
		ServiceUnavailableError("notifications are not enabled").Write(w)
		return
	}

	limit := defaultNotificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			BadRequestError("limit must be a positive integer").Write(w)
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	st := s.deps.Notifier.State()
	resp := notificationsResponse{
		Status:       string(st.Status),
		UserID:       st.UserID,
		Attempt:      st.Attempt,
		Reconnecting: st.Reconnecting,
		Recent:       []core.Notification{},
	}
	if s.deps.Notifications != nil {
		recent, err := s.deps.Notifications.RecentNotifications(r.Context(), limit)
		if err != nil {
			log.LogError(r.Context(), "Failed to read notification log", err, log.ComponentStorage, log.OpRecord, nil)
			InternalServerError("failed to read notifications").Write(w)
			return
		}
		if recent != nil {
			resp.Recent = recent
		}
	}
	NewJSONResponse().Body(resp).Write(w)
}

