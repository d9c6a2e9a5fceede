package propimport

import (
	"context"
	"errors"
	"io"

	"github.com/MacJediWizard/console/internal/db"
	"github.com/MacJediWizard/console/internal/properties"
	"github.com/rs/zerolog"
)

// Batch size bounds.
const (
	DefaultBatchSize = 100
	MaxBatchSize     = 1000
)

// Store persists imported records.
type Store interface {
	ImportProperties(ctx context.Context, recs []properties.Record) (db.ImportCounts, error)
}

// Options configures an import run.
type Options struct {
	BatchSize int
	// DryRun parses and validates without writing.
	DryRun bool
}

// ImportError describes a row that was not imported.
type ImportError struct {
	RowNumber int    `json:"row_number"`
	Address   string `json:"address,omitempty"`
	Message   string `json:"message"`
}

// Summary reports the outcome of an import run.
type Summary struct {
	TotalRows   int           `json:"total_rows"`
	ValidRows   int           `json:"valid_rows"`
	InvalidRows int           `json:"invalid_rows"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Failed      int           `json:"failed"`
	DryRun      bool          `json:"dry_run"`
	Mapping     ColumnMapping `json:"mapping"`
	Errors      []ImportError `json:"errors,omitempty"`
}

// Importer parses CSV exports and stores the valid rows.
type Importer struct {
	parser *Parser
	store  Store
	logger zerolog.Logger
}

// NewImporter creates an importer. store may be nil for dry runs.
func NewImporter(parser *Parser, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		parser: parser,
		store:  store,
		logger: logger.With().Str("component", "property_import").Logger(),
	}
}

// Import parses r and stores the valid rows in batches. When a batch fails
// its rows are retried one at a time, so one bad row does not drop the rest.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (Summary, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	mapping, entries, err := im.parser.Parse(r)
	if err != nil {
		return Summary{Mapping: mapping}, err
	}

	summary := Summary{TotalRows: len(entries), DryRun: opts.DryRun, Mapping: mapping}
	valid := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsValid {
			summary.InvalidRows++
			for _, msg := range entry.Errors {
				summary.Errors = append(summary.Errors, ImportError{
					RowNumber: entry.RowNumber,
					Address:   entry.Record.Address,
					Message:   msg,
				})
			}
			continue
		}
		summary.ValidRows++
		valid = append(valid, entry)
	}

	im.logger.Info().
		Int("total", summary.TotalRows).
		Int("valid", summary.ValidRows).
		Int("invalid", summary.InvalidRows).
		Interface("mapping", mapping).
		Msg("parsed property CSV")

	if opts.DryRun {
		im.logger.Info().Msg("dry run, nothing imported")
		return summary, nil
	}
	if im.store == nil {
		return summary, errors.New("import: no store configured")
	}

	for start := 0; start < len(valid); start += batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := min(start+batchSize, len(valid))
		im.importBatch(ctx, valid[start:end], start/batchSize+1, &summary)
	}

	im.logger.Info().
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Msg("property import completed")

	return summary, nil
}

func (im *Importer) importBatch(ctx context.Context, batch []Entry, number int, summary *Summary) {
	recs := make([]properties.Record, len(batch))
	for i, entry := range batch {
		recs[i] = entry.Record
	}

	counts, err := im.store.ImportProperties(ctx, recs)
	if err == nil {
		summary.Created += counts.Created
		summary.Updated += counts.Updated
		im.logger.Debug().Int("batch", number).Int("records", len(batch)).Msg("imported batch")
		return
	}

	im.logger.Warn().Err(err).Int("batch", number).Msg("batch import failed, retrying rows individually")
	for _, entry := range batch {
		counts, err := im.store.ImportProperties(ctx, []properties.Record{entry.Record})
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ImportError{
				RowNumber: entry.RowNumber,
				Address:   entry.Record.Address,
				Message:   err.Error(),
			})
			im.logger.Error().Err(err).Int("row", entry.RowNumber).Msg("failed to import property")
			continue
		}
		summary.Created += counts.Created
		summary.Updated += counts.Updated
	}
}
