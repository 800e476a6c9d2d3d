package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
)

const maxSubmissionBytes = 1 << 20

func (s *Server) handleForms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.forms)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSubmissionBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, goerr.Wrap(err, "failed to read submission"))
		return
	}

	var values map[string]any
	if err := json.Unmarshal(body, &values); err != nil {
		s.writeError(w, r, http.StatusBadRequest, goerr.Wrap(err, "submission must be a json object"))
		return
	}
	if values == nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("submission must be a json object"))
		return
	}

	sub := Submission{ID: s.newID(), Values: values, CreatedAt: s.now()}
	s.store.Add(sub)
	s.metrics.submissions.Inc()
	s.logger.Info("submission stored",
		slog.String("id", sub.ID),
		slog.Int("fields", len(values)))

	s.writeJSON(w, r, http.StatusOK, map[string]string{"id": sub.ID})
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	subs := s.store.List()
	columns := s.columns
	if len(columns) == 0 {
		columns = Columns(subs)
	}
	rows := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, sub.Row())
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"columns": columns,
		"data":    rows,
	})
}

func (s *Server) handleOptions(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := r.URL.Query().Get("value")
		s.writeJSON(w, r, http.StatusOK, s.options.Lookup(endpoint, value))
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.spec)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, goerr.Wrap(err, "failed to encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	}
	var gerr *goerr.Error
	if errors.As(err, &gerr) {
		attrs = append(attrs, slog.Any("values", gerr.Values()))
	}
	s.logger.Warn("request failed", attrs...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
