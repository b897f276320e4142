package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"readmegen/internal/archive"
	"readmegen/internal/runledger"
	"readmegen/internal/trace"
)

// TraceHandler exposes run logs, the run ledger and archived prompts.
type TraceHandler struct {
	logs    *trace.Logger
	ledger  runledger.Store
	archive archive.Store
}

func NewTraceHandler(logs *trace.Logger, ledger runledger.Store, arch archive.Store) *TraceHandler {
	return &TraceHandler{logs: logs, ledger: ledger, archive: arch}
}

func encode(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HandleRunLogs returns the trace events of run_id, or the known run ids
// when run_id is omitted.
func (h *TraceHandler) HandleRunLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.logs == nil {
		http.Error(w, "run logs are disabled", http.StatusNotFound)
		return
	}
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		runs, err := h.logs.Runs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		encode(w, map[string]any{"runs": runs})
		return
	}
	events, err := h.logs.Read(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(w, map[string]any{
		"run_id": runID,
		"events": events,
	})
}

// HandleRuns lists recent runs from the ledger, or one run with run_id.
func (h *TraceHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.ledger == nil {
		http.Error(w, "run ledger is disabled", http.StatusNotFound)
		return
	}
	if runID := strings.TrimSpace(r.URL.Query().Get("run_id")); runID != "" {
		run, err := h.ledger.Get(r.Context(), runID)
		if errors.Is(err, runledger.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		encode(w, run)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.ledger.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(w, map[string]any{"runs": runs})
}

// HandleArtifacts lists the archived prompts of run_id, or returns one
// artifact as text when path is given.
func (h *TraceHandler) HandleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.archive == nil {
		http.Error(w, "prompt archive is disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	runID := strings.TrimSpace(q.Get("run_id"))
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	if path := strings.TrimSpace(q.Get("path")); path != "" {
		data, err := h.archive.Get(r.Context(), runID, path)
		if errors.Is(err, archive.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(data)
		return
	}
	paths, err := h.archive.List(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(w, map[string]any{"run_id": runID, "paths": paths})
}
