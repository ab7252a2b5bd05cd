package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/linkbase/internal/core"
)

// IngestRequest is the body of POST /api/tables/{tableID}/records.
type IngestRequest struct {
	Records []core.Record `json:"records"`
}

// FormatResponse is the body of GET /api/time/format. Formatted is null
// when the value is not a date.
type FormatResponse struct {
	Formatted *string `json:"formatted"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"ingest": s.service.LimiterStatus(),
	})
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.service.Headers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, fields)
}

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	field, err := s.service.Field(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, field)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.tables.ListTables(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, tables)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.tables.ListRecords(r.Context(), chi.URLParam(r, "tableID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize)

	var req IngestRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: file too large", core.ErrInvalidImport))
			return
		}
		respondError(w, r, fmt.Errorf("%w: decode body: %v", core.ErrInvalidInput, err))
		return
	}

	report, err := s.service.Ingest(r.Context(), chi.URLParam(r, "tableID"), req.Records)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeIngestReport(w, report)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Multipart overhead on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize+1<<20)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: file too large", core.ErrInvalidImport))
			return
		}
		respondError(w, r, fmt.Errorf("%w: no file provided", core.ErrInvalidImport))
		return
	}
	defer file.Close()

	report, err := s.service.ImportCSV(r.Context(), chi.URLParam(r, "tableID"), file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeIngestReport(w, report)
}

// writeIngestReport answers 201 when records were written and 200 otherwise.
func writeIngestReport(w http.ResponseWriter, report core.IngestReport) {
	status := http.StatusOK
	if report.Written > 0 {
		status = http.StatusCreated
	}
	writeJSONStatus(w, status, report)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Catalog())
}

func (s *Server) handleCatalogChildren(w http.ResponseWriter, r *http.Request) {
	children, err := s.service.Children(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, children)
}

func (s *Server) handleFormatTime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := strings.TrimSpace(q.Get("value"))
	if value == "" {
		respondError(w, r, fmt.Errorf("%w: value is required", core.ErrInvalidInput))
		return
	}

	formatted, ok, err := s.service.FormatTime(core.ValueFromText(value), q.Get("pattern"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var resp FormatResponse
	if ok {
		resp.Formatted = &formatted
	}
	writeJSON(w, resp)
}
