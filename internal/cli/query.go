package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/olap"
)

var (
	queryParams  []string
	queryExplain bool
	queryJSON    bool
	querySQL     bool
)

var queryCmd = &cobra.Command{
	Use:   "query <operation>",
	Short: "Run one OLAP operation against the warehouse",
	Long: `Run a named OLAP operation and print its result table and elapsed
time. Use 'pgedge-salesdw operations' to list operations and their
parameters. List parameters take comma-separated values.

Example:
  pgedge-salesdw query rollup_category
  pgedge-salesdw query drilldown_year_month --param year=2021
  pgedge-salesdw query dice --param years=2020,2021 --param couriers=DHL,FEDEX
  pgedge-salesdw query slice_city --param city=Manila --explain`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the OLAP operations",
	Run: func(cmd *cobra.Command, args []string) {
		printOperations(cmd.OutOrStdout(), olap.Operations())
	},
}

func init() {
	queryCmd.Flags().StringArrayVarP(&queryParams, "param", "p", nil,
		"operation parameter as name=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryExplain, "explain", false,
		"print the query plan instead of running the query")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false,
		"print the result as JSON")
	queryCmd.Flags().BoolVar(&querySQL, "sql", false,
		"print the SQL before the result")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	op, err := olap.Lookup(args[0])
	if err != nil {
		return err
	}
	params, err := parseParams(queryParams)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	svc := olap.NewService(olap.NewDBExecutor(conn, cfg.Query.Timeout, nil), conn.Dialect)

	var res *olap.Result
	if queryExplain {
		q, err := op.Query(params)
		if err != nil {
			return err
		}
		res, err = svc.Explain(ctx, q)
		if err != nil {
			return err
		}
	} else {
		res, err = op.Run(ctx, svc, params)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if querySQL {
		fmt.Fprintf(out, "%s\n\n", strings.TrimSpace(res.SQL))
	}
	printResult(out, res)
	return nil
}

// parseParams turns name=value pairs into operation parameters.
func parseParams(pairs []string) (olap.Params, error) {
	params := olap.Params{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (want name=value)", p)
		}
		params[name] = value
	}
	return params, nil
}

func printResult(out io.Writer, res *olap.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d rows in %.2f ms\n", len(res.Rows), res.ElapsedMillis())
}

func printOperations(out io.Writer, ops []*olap.Operation) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tKIND\tPARAMETERS\tDESCRIPTION")
	for _, op := range ops {
		params := make([]string, len(op.Params))
		for i, p := range op.Params {
			params[i] = p.Name
			if !p.Required {
				params[i] = "[" + p.Name + "]"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name, op.Kind, strings.Join(params, " "), op.Description)
	}
	tw.Flush()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(v)
	}
}
