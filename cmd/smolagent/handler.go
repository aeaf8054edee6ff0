package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
)

const defaultPageSize = 20

type apiError struct {
	Error string `json:"error"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiError{Error: msg})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type listTracesResponse struct {
	Traces        []string `json:"traces"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}

// handleListTraces pages through trace IDs in sorted order. The page token is the encoded last ID of the previous
// page.
func (s *server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	pageSize := defaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid page_size parameter")
			return
		}
		pageSize = n
	}

	var after string
	if token := r.URL.Query().Get("page_token"); token != "" {
		decoded, err := base64.URLEncoding.DecodeString(token)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid page_token parameter")
			return
		}
		after = string(decoded)
	}

	ids, err := s.source.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list traces", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list traces")
		return
	}

	start := 0
	if after != "" {
		start = len(ids)
		for i, id := range ids {
			if id > after {
				start = i
				break
			}
		}
	}
	end := min(start+pageSize, len(ids))

	resp := listTracesResponse{Traces: append([]string{}, ids[start:end]...)}
	if end < len(ids) {
		resp.NextPageToken = base64.URLEncoding.EncodeToString([]byte(ids[end-1]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")
	if traceID == "" {
		s.writeError(w, http.StatusBadRequest, "trace ID is required")
		return
	}

	t, err := s.source.Load(r.Context(), traceID)
	if err != nil {
		s.logger.Error("failed to get trace", "error", err, "trace_id", traceID)
		s.writeError(w, http.StatusNotFound, "trace not found")
		return
	}

	s.writeJSON(w, http.StatusOK, t)
}
