package core

// ingest.go implements the batch write of (title, url) records.
//
// The pipeline is: resolve table, resolve both target fields, drop
// incomplete records, build every cell concurrently, then write all rows in a
// single AddRecords call. A failure anywhere aborts the batch. Errors the
// store classifies as "invalid operation" are logged and swallowed; every
// other store error is returned to the caller unchanged.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Default target columns of a link table.
const (
	DefaultTitleField = "标题"
	DefaultURLField   = "网址"
)

// Record is one candidate row.
type Record struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Complete reports whether both title and url are present.
func (r Record) Complete() bool {
	return r.Title != "" && r.URL != ""
}

// FilterComplete returns the records that carry both a title and a url,
// preserving order.
func FilterComplete(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}

// Ingestor writes records into a fixed pair of columns.
// Callers wanting different columns create another Ingestor.
type Ingestor struct {
	store      TableStore
	titleField string
	urlField   string
	logger     *slog.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithFieldNames overrides the title and url column names.
func WithFieldNames(title, url string) IngestorOption {
	return func(in *Ingestor) {
		if title != "" {
			in.titleField = title
		}
		if url != "" {
			in.urlField = url
		}
	}
}

// WithLogger sets the logger used for swallowed store errors.
func WithLogger(l *slog.Logger) IngestorOption {
	return func(in *Ingestor) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngestor creates an Ingestor writing through store.
func NewIngestor(store TableStore, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		store:      store,
		titleField: DefaultTitleField,
		urlField:   DefaultURLField,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// TitleField returns the column titles are written to.
func (in *Ingestor) TitleField() string { return in.titleField }

// URLField returns the column urls are written to.
func (in *Ingestor) URLField() string { return in.urlField }

// Ingest writes the complete records of the batch into table tableID and
// returns the new record ids in input order.
//
// An empty table id or an empty batch fails with ErrInvalidInput without
// touching the store. When the store rejects the batch with an invalid
// operation error, Ingest logs it and returns (nil, nil).
func (in *Ingestor) Ingest(ctx context.Context, tableID string, records []Record) ([]RecordID, error) {
	if strings.TrimSpace(tableID) == "" {
		return nil, fmt.Errorf("%w: table id is required", ErrInvalidInput)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: at least one record is required", ErrInvalidInput)
	}
	if in.store == nil {
		return nil, fmt.Errorf("%w: table store is nil", ErrInvalidInput)
	}

	ids, err := in.write(ctx, tableID, records)
	if err != nil {
		if in.store.IsInvalidOperation(err) {
			in.logger.Error("ingest rejected by store",
				"table_id", tableID,
				"records", len(records),
				"error", err,
			)
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (in *Ingestor) write(ctx context.Context, tableID string, records []Record) ([]RecordID, error) {
	table, err := in.store.TableByID(ctx, tableID)
	if err != nil {
		return nil, err
	}

	titleField, err := table.Field(ctx, in.titleField)
	if err != nil {
		return nil, err
	}
	urlField, err := table.Field(ctx, in.urlField)
	if err != nil {
		return nil, err
	}

	complete := FilterComplete(records)
	rows := make([]Row, len(complete))

	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range complete {
		g.Go(func() error {
			row, err := buildRow(gctx, titleField, urlField, rec)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return table.AddRecords(ctx, rows)
}

// buildRow constructs the title and url cells of one record concurrently.
func buildRow(ctx context.Context, titleField, urlField FieldHandle, rec Record) (Row, error) {
	var title, url Cell

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		title, err = titleField.CreateCell(gctx, rec.Title)
		return err
	})
	g.Go(func() (err error) {
		url, err = urlField.CreateCell(gctx, rec.URL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Row{title, url}, nil
}
