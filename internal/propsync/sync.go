// Package propsync mirrors the Notion properties database into the
// cre_properties table, pushes locally added properties back to Notion and
// reports how far the two have drifted.
package propsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MacJediWizard/console/internal/db"
	"github.com/MacJediWizard/console/internal/integrations/notion"
	"github.com/MacJediWizard/console/internal/properties"
	"github.com/rs/zerolog"
)

// ErrSyncInProgress is returned when a sync is requested while one is running.
var ErrSyncInProgress = errors.New("property sync already in progress")

// Direction names which side of the sync is written.
type Direction string

const (
	// DirectionToDatabase upserts Notion pages into the database.
	DirectionToDatabase Direction = "to_database"
	// DirectionToNotion creates Notion pages for properties that have none.
	DirectionToNotion Direction = "to_notion"
)

// PageSource reads and creates pages of the Notion properties database.
type PageSource interface {
	AllPages(ctx context.Context) ([]notion.Page, error)
	CreatePage(ctx context.Context, props map[string]any) (*notion.Page, error)
}

// Store persists property records.
type Store interface {
	UpsertProperty(ctx context.Context, rec properties.Record) (bool, error)
	CountProperties(ctx context.Context) (db.PropertyCounts, error)
	UnsyncedProperties(ctx context.Context) ([]properties.Record, error)
	SetNotionID(ctx context.Context, id, notionID string) error
}

// Recorder receives sync metrics.
type Recorder interface {
	RecordSync(direction, outcome string, created, updated, failed int)
	SetPropertyCount(source string, count int64)
}

// Stats counts the outcome of a sync run.
type Stats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// FullStats holds the counts of a sync in both directions.
type FullStats struct {
	ToDatabase Stats `json:"to_database"`
	ToNotion   Stats `json:"to_notion"`
}

// Run describes a completed sync.
type Run struct {
	Direction  Direction `json:"direction"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stats      Stats     `json:"stats"`
	Error      string    `json:"error,omitempty"`
}

// Status compares the database against Notion.
type Status struct {
	DatabaseTotal      int64     `json:"database_total"`
	NotionTotal        int       `json:"notion_total"`
	SyncedProperties   int64     `json:"synced_properties"`
	UnsyncedProperties int64     `json:"unsynced_properties"`
	LastCheck          time.Time `json:"last_check"`
	LastSync           *Run      `json:"last_sync,omitempty"`
}

// Syncer copies Notion pages into the database.
type Syncer struct {
	source   PageSource
	store    Store
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time

	running sync.Mutex

	mu      sync.RWMutex
	lastRun *Run
}

// NewSyncer creates a Syncer. recorder may be nil.
func NewSyncer(source PageSource, store Store, recorder Recorder, logger zerolog.Logger) *Syncer {
	return &Syncer{
		source:   source,
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "property_sync").Logger(),
		now:      time.Now,
	}
}

// SyncNotionToDatabase upserts every Notion page by notion_id. Failures on
// individual records are counted and skipped; only a failure to list pages
// aborts the run.
func (s *Syncer) SyncNotionToDatabase(ctx context.Context) (Stats, error) {
	if !s.running.TryLock() {
		return Stats{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	return s.run(ctx, DirectionToDatabase)
}

// SyncDatabaseToNotion creates a Notion page for every property without a
// notion_id and links the row to it. Failures on individual records are
// counted and skipped.
func (s *Syncer) SyncDatabaseToNotion(ctx context.Context) (Stats, error) {
	if !s.running.TryLock() {
		return Stats{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	return s.run(ctx, DirectionToNotion)
}

// FullSync pulls Notion into the database and then pushes the remaining
// local properties to Notion. The push is skipped when the pull fails.
func (s *Syncer) FullSync(ctx context.Context) (FullStats, error) {
	if !s.running.TryLock() {
		return FullStats{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	var full FullStats
	var err error
	if full.ToDatabase, err = s.run(ctx, DirectionToDatabase); err != nil {
		return full, err
	}
	full.ToNotion, err = s.run(ctx, DirectionToNotion)
	return full, err
}

// run performs one direction. The caller holds the running lock.
func (s *Syncer) run(ctx context.Context, direction Direction) (Stats, error) {
	run := &Run{Direction: direction, StartedAt: s.now()}
	logger := s.logger.With().Str("direction", string(direction)).Logger()
	logger.Info().Msg("starting property sync")

	var (
		stats Stats
		err   error
	)
	if direction == DirectionToNotion {
		stats, err = s.pushRecords(ctx, logger)
	} else {
		stats, err = s.syncPages(ctx)
	}

	run.FinishedAt = s.now()
	run.Stats = stats
	outcome := "success"
	if err != nil {
		run.Error = err.Error()
		outcome = "failure"
	} else if stats.Errors > 0 {
		outcome = "partial"
	}
	s.setLastRun(run)

	if s.recorder != nil {
		s.recorder.RecordSync(string(direction), outcome, stats.Created, stats.Updated, stats.Errors)
	}

	if err != nil {
		logger.Error().Err(err).Msg("property sync failed")
		return stats, err
	}

	logger.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("errors", stats.Errors).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("property sync completed")

	return stats, nil
}

func (s *Syncer) syncPages(ctx context.Context) (Stats, error) {
	var stats Stats

	pages, err := s.source.AllPages(ctx)
	if err != nil {
		return stats, fmt.Errorf("list notion pages: %w", err)
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec := properties.FromNotionPage(page, s.now())
		created, err := s.store.UpsertProperty(ctx, rec)
		if err != nil {
			stats.Errors++
			s.logger.Error().
				Err(err).
				Str("notion_id", page.ID).
				Int("index", i+1).
				Int("total", len(pages)).
				Msg("failed to sync property")
			continue
		}

		if created {
			stats.Created++
		} else {
			stats.Updated++
		}

		s.logger.Debug().
			Str("notion_id", page.ID).
			Str("address", rec.Address).
			Bool("created", created).
			Msg("synced property")
	}

	return stats, nil
}

func (s *Syncer) pushRecords(ctx context.Context, logger zerolog.Logger) (Stats, error) {
	var stats Stats

	recs, err := s.store.UnsyncedProperties(ctx)
	if err != nil {
		return stats, fmt.Errorf("list unsynced properties: %w", err)
	}

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := s.source.CreatePage(ctx, properties.ToNotionProperties(rec))
		if err != nil {
			stats.Errors++
			logger.Error().
				Err(err).
				Str("property_id", rec.ID).
				Int("index", i+1).
				Int("total", len(recs)).
				Msg("failed to create Notion page")
			continue
		}

		if err := s.store.SetNotionID(ctx, rec.ID, page.ID); err != nil {
			// The next pull imports the orphaned page as its own row.
			stats.Errors++
			logger.Error().
				Err(err).
				Str("property_id", rec.ID).
				Str("notion_id", page.ID).
				Msg("created Notion page but failed to link property")
			continue
		}

		stats.Created++
		logger.Debug().
			Str("property_id", rec.ID).
			Str("notion_id", page.ID).
			Str("address", rec.Address).
			Msg("pushed property to Notion")
	}

	return stats, nil
}

// Status counts properties on both sides.
func (s *Syncer) Status(ctx context.Context) (Status, error) {
	counts, err := s.store.CountProperties(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count database properties: %w", err)
	}

	pages, err := s.source.AllPages(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count notion properties: %w", err)
	}

	if s.recorder != nil {
		s.recorder.SetPropertyCount("database", counts.Total)
		s.recorder.SetPropertyCount("notion", int64(len(pages)))
	}

	return Status{
		DatabaseTotal:      counts.Total,
		NotionTotal:        len(pages),
		SyncedProperties:   counts.Synced,
		UnsyncedProperties: counts.Total - counts.Synced,
		LastCheck:          s.now().UTC(),
		LastSync:           s.LastRun(),
	}, nil
}

// LastRun returns a copy of the most recent sync run, or nil.
func (s *Syncer) LastRun() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	run := *s.lastRun
	return &run
}

func (s *Syncer) setLastRun(run *Run) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}
