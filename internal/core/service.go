package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/linkbase/internal/catalog"
)

// Default service limits.
const (
	DefaultIngestTimeout = 60 * time.Second
	DefaultMaxRecords    = 5000
	DefaultMaxImportSize = 10 * 1024 * 1024
)

// ServiceConfig holds the knobs of a Service. Zero values select defaults.
type ServiceConfig struct {
	TitleField    string
	URLField      string
	MaxConcurrent int
	MaxWait       time.Duration
	IngestTimeout time.Duration
	MaxRecords    int
	MaxImportSize int64
	TimeZone      *time.Location
	TimePattern   string
	Logger        *slog.Logger
}

// IngestReport summarizes one ingest call.
type IngestReport struct {
	RecordIDs []RecordID `json:"record_ids"`
	Written   int        `json:"written"`
	Dropped   int        `json:"dropped"`
	// Rejected is set when the store refused the batch as an invalid
	// operation and nothing was written.
	Rejected bool `json:"rejected,omitempty"`
}

// Service ties the table store, the ingestor, the catalog and the time
// normalizer together for the HTTP, CLI and MCP front ends.
type Service struct {
	store      TableStore
	ingestor   *Ingestor
	limiter    *IngestLimiter
	normalizer Normalizer
	catalog    []catalog.Node

	timeout    time.Duration
	maxRecords int
	maxImport  int64
	logger     *slog.Logger
}

// NewService creates a Service over store serving the given catalog roots.
func NewService(store TableStore, roots []catalog.Node, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrentIngests
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultIngestWait
	}
	if cfg.IngestTimeout <= 0 {
		cfg.IngestTimeout = DefaultIngestTimeout
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = DefaultMaxRecords
	}
	if cfg.MaxImportSize <= 0 {
		cfg.MaxImportSize = DefaultMaxImportSize
	}
	if roots == nil {
		roots = []catalog.Node{}
	}

	return &Service{
		store: store,
		ingestor: NewIngestor(store,
			WithFieldNames(cfg.TitleField, cfg.URLField),
			WithLogger(logger),
		),
		limiter: NewIngestLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		normalizer: Normalizer{
			Location:       cfg.TimeZone,
			DefaultPattern: cfg.TimePattern,
			Logger:         logger,
		},
		catalog:    roots,
		timeout:    cfg.IngestTimeout,
		maxRecords: cfg.MaxRecords,
		maxImport:  cfg.MaxImportSize,
		logger:     logger,
	}
}

// Headers returns the field metadata of the active table.
func (s *Service) Headers(ctx context.Context) ([]FieldMeta, error) {
	return FetchHeaders(ctx, s.store)
}

// Field returns the active table's field called name.
func (s *Service) Field(ctx context.Context, name string) (FieldMeta, error) {
	fields, err := s.Headers(ctx)
	if err != nil {
		return FieldMeta{}, err
	}
	f, ok := FindField(fields, name)
	if !ok {
		return FieldMeta{}, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return f, nil
}

// TitleField returns the column titles are ingested into.
func (s *Service) TitleField() string { return s.ingestor.TitleField() }

// URLField returns the column urls are ingested into.
func (s *Service) URLField() string { return s.ingestor.URLField() }

// Ingest writes records into tableID under the ingest limiter.
func (s *Service) Ingest(ctx context.Context, tableID string, records []Record) (IngestReport, error) {
	if len(records) > s.maxRecords {
		return IngestReport{}, fmt.Errorf("%w: batch of %d records exceeds limit of %d",
			ErrInvalidInput, len(records), s.maxRecords)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return IngestReport{}, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ip, ua := ClientFromContext(ctx)
	logger := s.logger.With("table_id", tableID, "client_ip", ip, "user_agent", ua)

	start := time.Now()
	ids, err := s.ingestor.Ingest(ctx, tableID, records)
	if err != nil {
		logger.Warn("ingest failed", "records", len(records), "error", err)
		return IngestReport{}, err
	}

	complete := len(FilterComplete(records))
	report := IngestReport{
		RecordIDs: ids,
		Written:   len(ids),
		Dropped:   len(records) - complete,
		Rejected:  ids == nil && complete > 0,
	}
	if report.RecordIDs == nil {
		report.RecordIDs = []RecordID{}
	}

	logger.Info("ingest completed",
		"written", report.Written,
		"dropped", report.Dropped,
		"rejected", report.Rejected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// ImportCSV parses a links CSV and ingests it into tableID.
func (s *Service) ImportCSV(ctx context.Context, tableID string, r io.Reader) (IngestReport, error) {
	if r == nil {
		return IngestReport{}, fmt.Errorf("%w: no file provided", ErrInvalidImport)
	}

	lr := &limitedReader{r: r, remaining: s.maxImport}
	records, err := ParseLinksCSV(lr, s.TitleField(), s.URLField())
	if lr.exceeded {
		return IngestReport{}, fmt.Errorf("%w: file too large (max %d bytes)", ErrInvalidImport, s.maxImport)
	}
	if err != nil {
		return IngestReport{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	return s.Ingest(ctx, tableID, records)
}

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

var errImportTooLarge = errors.New("file too large")

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return 0, errImportTooLarge
	}
	return n, err
}

// Catalog returns the annotated navigation tree.
func (s *Service) Catalog() []catalog.Node {
	return catalog.Annotate(s.catalog)
}

// Children returns the annotated children of the catalog node id.
func (s *Service) Children(id string) ([]catalog.Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: node id is required", ErrInvalidInput)
	}
	res := catalog.FindChildrenIn(s.Catalog(), catalog.NodeID(id))
	if !res.Found {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return res.Children, nil
}

// FormatTime renders value with pattern, or with the default pattern when
// pattern is empty. ok is false when value is not a recognizable date.
func (s *Service) FormatTime(value any, pattern string) (formatted string, ok bool, err error) {
	return s.normalizer.Format(value, pattern)
}

// LimiterStatus reports ingest slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForIngests blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
