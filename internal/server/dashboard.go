package server

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/pgEdge/pgedge-salesdw/internal/olap"
	"github.com/pgEdge/pgedge-salesdw/pkg/version"
)

//go:embed dashboard.html
var dashboardHTML string

var templateFuncs = template.FuncMap{
	"cell": formatCell,
	"param": func(p olap.Params, name string) string {
		return p[name]
	},
}

type operationGroup struct {
	Kind       olap.Kind
	Operations []*olap.Operation
}

type dashboardData struct {
	Summary      olap.Summary
	SummaryError string
	Groups       []operationGroup
	Selected     *olap.Operation
	Params       olap.Params
	Result       ResultResponse
	Error        string
	Version      string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Groups:  groupOperations(olap.Operations()),
		Params:  paramsOf(r),
		Result:  ResultResponse{Columns: []string{}, Rows: [][]any{}},
		Version: version.Short(),
	}

	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Summary failed")
		data.SummaryError = SanitizeError(err)
	}
	data.Summary = sum

	if name := r.URL.Query().Get("op"); name != "" {
		explain, _ := strconv.ParseBool(r.URL.Query().Get("explain"))
		if op, err := olap.Lookup(name); err == nil {
			data.Selected = op
		}
		res, err := s.runOperation(r.Context(), name, data.Params, explain)
		if err != nil {
			s.log.Error().Err(err).Str("operation", name).Msg("Operation failed")
			data.Error = SanitizeError(err)
			data.Result.Name = name
		} else {
			data.Result = responseOf(res)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to render dashboard")
	}
}

func groupOperations(ops []*olap.Operation) []operationGroup {
	var groups []operationGroup
	index := make(map[olap.Kind]int)
	for _, op := range ops {
		i, ok := index[op.Kind]
		if !ok {
			i = len(groups)
			index[op.Kind] = i
			groups = append(groups, operationGroup{Kind: op.Kind})
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}
	return groups
}

// formatCell renders numbers with two decimals unless they are whole.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	default:
		return fmt.Sprint(v)
	}
}
