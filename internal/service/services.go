package service

import (
	"log/slog"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/holiday"
	"github.com/xolan/tpsheet/internal/journal"
)

// Services holds all service instances used by the application
type Services struct {
	Timesheet *Timesheet
	Config    *ConfigService
	History   *HistoryService
	Holidays  *HolidayService

	store *journal.Store
}

// NewServices creates the services for cfg. A journal that cannot be opened
// is logged and left out; submissions still run without it.
func NewServices(configPath, journalPath string, cfg config.Config, log *slog.Logger, opts ...Option) (*Services, error) {
	cal, err := holiday.Load(cfg.HolidayFile, log)
	if err != nil {
		return nil, apperr.Validation("load holiday calendar", cfg.HolidayFile, err)
	}

	var store *journal.Store
	if journalPath != "" {
		store, err = journal.Open(journalPath)
		if err != nil {
			log.Warn("journal.open_failed", "path", journalPath, "err", err)
			store = nil
		}
	}

	tsOpts := []Option{WithLogger(log)}
	if store != nil {
		tsOpts = append(tsOpts, WithJournal(store))
	}
	tsOpts = append(tsOpts, opts...)

	return &Services{
		Timesheet: NewTimesheet(cfg, cal, tsOpts...),
		Config:    NewConfigService(configPath, cfg),
		History:   NewHistoryService(store),
		Holidays:  NewHolidayService(cal),
		store:     store,
	}, nil
}

// Close releases the journal.
func (s *Services) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
