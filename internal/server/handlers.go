package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pgEdge/pgedge-salesdw/internal/olap"
)

// ResultResponse is the JSON body of /api/olap/{name}. On failure Error is
// set and Columns and Rows are empty.
type ResultResponse struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	ElapsedMS float64  `json:"elapsed_ms"`
	Cached    bool     `json:"cached"`
	SQL       string   `json:"sql,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// OperationsResponse is the JSON body of /api/operations.
type OperationsResponse struct {
	Operations []*olap.Operation `json:"operations"`
}

// SummaryResponse is the JSON body of /api/summary.
type SummaryResponse struct {
	olap.Summary
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OperationsResponse{Operations: olap.Operations()})
}

func (s *Server) handleOLAP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	params := paramsOf(r)
	explain, _ := strconv.ParseBool(r.URL.Query().Get("explain"))

	res, err := s.runOperation(r.Context(), name, params, explain)
	if err != nil {
		s.log.Error().Err(err).Str("operation", name).Msg("Operation failed")
		writeJSON(w, statusOf(err), ResultResponse{
			Name:    name,
			Columns: []string{},
			Rows:    [][]any{},
			Error:   SanitizeError(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, responseOf(res))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Summary failed")
		writeJSON(w, statusOf(err), SummaryResponse{Error: SanitizeError(err)})
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: sum})
}

func (s *Server) runOperation(ctx context.Context, name string, params olap.Params, explain bool) (*olap.Result, error) {
	op, err := olap.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !explain {
		return op.Run(ctx, s.svc, params)
	}
	q, err := op.Query(params)
	if err != nil {
		return nil, err
	}
	return s.svc.Explain(ctx, q)
}

// paramsOf takes the first value of every query parameter.
func paramsOf(r *http.Request) olap.Params {
	params := olap.Params{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 && k != "op" && k != "explain" {
			params[k] = v[0]
		}
	}
	return params
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, olap.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, olap.ErrMissingParam), errors.Is(err, olap.ErrInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, olap.ErrExplainUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func responseOf(res *olap.Result) ResultResponse {
	rows := make([][]any, len(res.Rows))
	for i, row := range res.Rows {
		line := make([]any, len(row))
		for j, v := range row {
			line[j] = jsonSafe(v)
		}
		rows[i] = line
	}
	return ResultResponse{
		Name:      res.Name,
		Columns:   res.Columns,
		Rows:      rows,
		ElapsedMS: res.ElapsedMillis(),
		Cached:    res.Cached,
		SQL:       res.SQL,
	}
}

// jsonSafe replaces values encoding/json rejects.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case []byte:
		return string(x)
	}
	return v
}
