package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	applog "fintrack/internal/log"
	"fintrack/internal/report"
)

func (s *Server) handleTransactionReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "transactions", s.svc.Reports.Transactions)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "monthly", s.svc.Reports.Monthly)
}

// serveReport renders into a buffer first so a failing writer still yields a JSON error.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, kind string,
	build func(ctx context.Context, userID, month string) (report.Table, error)) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	month := queryMonth(r)
	table, err := build(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, table); err != nil {
		writeError(w, r, fmt.Errorf("render %s report: %w", kind, err))
		return
	}

	filename := fmt.Sprintf("%s-%s%s", kind, month, format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		applog.FieldUserID, userID(r), applog.FieldMonth, month,
		applog.FieldFormat, string(format), applog.FieldOperation, applog.OpExport)
}
