package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	HeaderUserID = "X-User-Id"
	maxBodyBytes = 1 << 20
)

type userKey struct{}

// requireUser rejects requests without a UUID in X-User-Id and stores the normalised id.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		id, err := uuid.Parse(raw)
		if raw == "" || err != nil {
			writeFailure(w, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid "+HeaderUserID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id.String())))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}

// rateLimitKey counts authenticated callers by user and everyone else by address.
func rateLimitKey(r *http.Request) string {
	if id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(HeaderUserID))); err == nil {
		return "user:" + id.String()
	}
	return "ip:" + extractClientIP(r)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", core.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", core.ErrInvalidInput)
	}
	return nil
}

// Date accepts "2006-01-02" or RFC 3339 in JSON.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string")
	}
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

// parseTransactionFilter reads the list filters from the query string. endDate given as a bare
// day covers that whole day.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		AccountID:  strings.TrimSpace(q.Get("accountId")),
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("startDate"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return f, fmt.Errorf("%w: startDate: %v", core.ErrInvalidInput, err)
		}
		f.From = t
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return f, fmt.Errorf("%w: endDate: %v", core.ErrInvalidInput, err)
		}
		if len(v) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Second)
		}
		f.To = t
	}
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minAmount", &f.MinAmount}, {"maxAmount", &f.MaxAmount}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%w: %s: not a number", core.ErrInvalidAmount, p.name)
		}
		*p.dst = &d
	}
	return f, nil
}

// queryMonth returns ?month untouched. The engines reject anything but YYYYMM, including an
// empty value.
func queryMonth(r *http.Request) string {
	return r.URL.Query().Get("month")
}
