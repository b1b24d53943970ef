package service

import (
	"context"
	"errors"
	"time"

	"github.com/xolan/tpsheet/internal/journal"
)

// ErrNoJournal is returned when the journal could not be opened.
var ErrNoJournal = errors.New("submission journal is not available")

// HistoryService reads the submission journal
type HistoryService struct {
	store *journal.Store
}

// NewHistoryService creates a new HistoryService. store may be nil.
func NewHistoryService(store *journal.Store) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns the latest records, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	if s.store == nil {
		return nil, ErrNoJournal
	}
	return s.store.Recent(ctx, limit)
}

// ForDate returns every record for date, oldest first.
func (s *HistoryService) ForDate(ctx context.Context, date time.Time) ([]journal.Record, error) {
	if s.store == nil {
		return nil, ErrNoJournal
	}
	return s.store.ForDate(ctx, date)
}
