package sheets

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportWriter appends a rendered report below whatever a tab already holds.
	ReportWriter interface {
		AppendReport(ctx context.Context, tab string, t report.Table) (rowRef string, err error)
	}
)

// TabName is the spreadsheet tab a month's reports are appended to.
func TabName(m core.Month) string {
	return m.String() + " Report"
}

// Values lays a table out as spreadsheet rows: a title row, the header, the data rows and a
// blank spacer so consecutive appends stay readable.
func Values(t report.Table) [][]any {
	rows := t.Strings()
	out := make([][]any, 0, len(rows)+2)
	out = append(out, []any{t.Title})
	for _, r := range rows {
		cells := make([]any, len(r))
		for i, c := range r {
			cells[i] = c
		}
		out = append(out, cells)
	}
	out = append(out, []any{})
	return out
}
