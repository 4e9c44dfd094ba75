package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/crunchybytes/pkg/codec"
	"github.com/ssargent/crunchybytes/pkg/schema"
	"github.com/ssargent/crunchybytes/pkg/store"
)

// Server holds the API server state
type Server struct {
	store    store.RecordStore
	registry *schema.Registry
	config   ServerConfig
	metrics  *Metrics
	logger   zerolog.Logger
}

// NewServer creates a new API server
func NewServer(recordStore store.RecordStore, registry *schema.Registry, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		store:    recordStore,
		registry: registry,
		config:   config,
		metrics:  metrics,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// errorStatus maps a codec, schema or store error to an HTTP status
func errorStatus(err error) int {
	switch {
	case errors.Is(err, schema.ErrUnknownSchema), errors.Is(err, store.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrLengthExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrInvalidValue), errors.Is(err, schema.ErrUnknownField),
		errors.Is(err, codec.ErrIndexOutOfRange), errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) sendFailure(w http.ResponseWriter, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg(msg)
	}
	sendError(w, fmt.Sprintf("%s: %v", msg, err), status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.Definitions()
	summaries := make([]SchemaSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, SchemaSummary{
			Name:            def.FullName,
			File:            def.File,
			Props:           len(def.Props),
			MaxSerialLength: def.MaxSerialLength,
		})
	}
	sendSuccess(w, summaries)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		s.sendFailure(w, "Failed to get schema", err)
		return
	}
	sendSuccess(w, def)
}

// handleCreateRecord encodes the JSON body with the named schema and stores
// the result.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.registry.Lookup(name); err != nil {
		s.sendFailure(w, "Failed to get schema", err)
		return
	}

	body := r.Body
	if s.config.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	data, err := s.registry.Encode(name, values)
	s.metrics.RecordEncode(name, err == nil, len(data))
	if err != nil {
		s.sendFailure(w, "Failed to encode record", err)
		return
	}

	start := time.Now()
	id, err := s.store.Put(name, data)
	s.metrics.RecordStoreOperation("put", err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, "Failed to store record", err)
		return
	}

	sendJSON(w, http.StatusCreated, CreateRecordResponse{
		ID:           id,
		Schema:       name,
		SerialLength: len(data),
	})
}

// fetch loads the record named by the {id} URL parameter
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return nil, false
	}

	start := time.Now()
	rec, err := s.store.Get(id)
	s.metrics.RecordStoreOperation("get", err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, "Failed to get record", err)
		return nil, false
	}
	return rec, true
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetch(w, r)
	if !ok {
		return
	}

	decoded, err := s.registry.Decode(rec.Schema, rec.Payload)
	s.metrics.RecordDecode(rec.Schema, err == nil, len(rec.Payload))
	if err != nil {
		s.sendFailure(w, "Failed to decode record", err)
		return
	}

	sendSuccess(w, RecordResponse{
		ID:           rec.ID,
		Schema:       rec.Schema,
		SerialLength: len(rec.Payload),
		Timestamp:    rec.Timestamp,
		Value:        decoded.ToMap(),
	})
}

func (s *Server) handleGetRawRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Payload)))
	w.Header().Set("X-Crunchy-Schema", rec.Schema)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Payload)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	start := time.Now()
	err = s.store.Delete(id)
	s.metrics.RecordStoreOperation("delete", err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, "Failed to delete record", err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Record deleted successfully"})
}

// handleListRecords lists stored records, optionally filtered by ?schema=
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entries, err := s.store.List()
	s.metrics.RecordStoreOperation("list", err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, "Failed to list records", err)
		return
	}

	filter := r.URL.Query().Get("schema")
	out := make([]store.Entry, 0, len(entries))
	for _, e := range entries {
		if filter == "" || e.Schema == filter {
			out = append(out, e)
		}
	}
	sendSuccess(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	s.metrics.UpdateStoreStats(stats.Records, stats.DataSize)
	sendSuccess(w, map[string]interface{}{
		"store":   stats,
		"schemas": len(s.registry.Names()),
	})
}

// startMetricsUpdater refreshes the store gauges until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context) {
	interval := s.config.StatsInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.store.Stats()
			s.metrics.UpdateStoreStats(stats.Records, stats.DataSize)
		}
	}
}
