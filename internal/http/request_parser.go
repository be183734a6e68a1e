// Package http provides the local console's HTTP server and handlers.
//
// This file implements utilities for reading request bodies that arrive
// either as JSON or as form-encoded data.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"offertory/internal/core"
)

const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads the body once and serves fields from it whether
// it was JSON or form-encoded.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]json.RawMessage
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON and as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a field as text. JSON numbers are returned in their literal form.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		raw, ok := p.jsonData[key]
		if !ok {
			return ""
		}
		return sanitizeInput(rawString(raw))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Decode unmarshals a JSON body into v. It fails for form bodies.
func (p *RequestBodyParser) Decode(v any) error {
	if err := p.Parse(); err != nil {
		return err
	}
	if p.jsonData == nil {
		return errors.New("expected a JSON body")
	}
	return json.Unmarshal([]byte(strings.TrimSpace(string(p.body))), v)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

// offeringFields are the denomination table's field names.
var offeringFields = [...]string{
	"denomination500", "denomination200", "denomination100",
	"denomination50", "denomination20", "denomination10", "coins",
}

// ParseOfferingForm reads one offering's fields. prefix selects a nested
// offering in form bodies ("first_" reads "first_denomination500").
func (p *RequestBodyParser) ParseOfferingForm(prefix string) core.OfferingForm {
	var v [len(offeringFields)]core.Entry
	for i, name := range offeringFields {
		v[i] = core.Entry(p.Get(prefix + name))
	}
	return core.OfferingForm{
		Denomination500: v[0],
		Denomination200: v[1],
		Denomination100: v[2],
		Denomination50:  v[3],
		Denomination20:  v[4],
		Denomination10:  v[5],
		Coins:           v[6],
	}
}

// RequireMethod returns an error response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
