package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/report"
	ports "fintrack/internal/sheets"
)

// Store keeps appended report rows per tab. It stands in for Google Sheets when no spreadsheet
// is configured and in tests.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// AppendReport stores the rows and returns a synthetic range reference.
func (s *Store) AppendReport(_ context.Context, tab string, t report.Table) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.tabs[tab]) + 1
	s.tabs[tab] = append(s.tabs[tab], ports.Values(t)...)
	return fmt.Sprintf("mem:%s!A%d:A%d", tab, start, len(s.tabs[tab])), nil
}

// Rows returns a copy of everything appended to tab.
func (s *Store) Rows(tab string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.tabs[tab]...)
}
