package sources

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// DimensionQuery describes where one dimension's metrics live. Query, when
// set, overrides the table-based lookup; it must select the metric name and
// value as its first two columns.
type DimensionQuery struct {
	Table       string
	NameColumn  string
	ValueColumn string
	Query       string
}

// DefaultDimensionQueries returns the conventional per-dimension tables
// (results_metrics, process_metrics, support_metrics, longterm_metrics).
func DefaultDimensionQueries() map[metrics.Dimension]DimensionQuery {
	m := make(map[metrics.Dimension]DimensionQuery, len(metrics.Dimensions))
	for _, d := range metrics.Dimensions {
		m[d] = DimensionQuery{
			Table:       string(d) + "_metrics",
			NameColumn:  "metric_name",
			ValueColumn: "metric_value",
		}
	}
	return m
}

// SQL reads dimension metrics from a relational database. Supported drivers
// are "mysql", "pgx", and "sqlite".
type SQL struct {
	db         *sql.DB
	driver     string
	dimensions map[metrics.Dimension]DimensionQuery
}

// OpenSQL opens a database for the given driver and DSN. A nil dimensions
// map selects the conventional tables.
func OpenSQL(driver, dsn string, dimensions map[metrics.Dimension]DimensionQuery) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if dimensions == nil {
		dimensions = DefaultDimensionQueries()
	}
	return &SQL{
		db:         db,
		driver:     driver,
		dimensions: dimensions,
	}, nil
}

// Name implements Source.
func (s *SQL) Name() string { return s.driver }

// Close releases the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Fetch queries all four dimensions.
func (s *SQL) Fetch(ctx context.Context) (metrics.Context, error) {
	var data metrics.Context
	for _, d := range metrics.Dimensions {
		if err := s.queryDimension(ctx, d, data.Group(d)); err != nil {
			return metrics.Context{}, err
		}
	}
	return data, nil
}

func (s *SQL) queryDimension(ctx context.Context, dim metrics.Dimension, group *metrics.Group) error {
	dq, ok := s.dimensions[dim]
	if !ok {
		return nil
	}

	query := dq.Query
	if query == "" {
		query = fmt.Sprintf("SELECT %s, %s FROM %s", dq.NameColumn, dq.ValueColumn, dq.Table)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying %s metrics: %w", dim, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var raw any
		if err := rows.Scan(&name, &raw); err != nil {
			return fmt.Errorf("scanning %s metrics: %w", dim, err)
		}
		group.Set(name, valueFromSQL(raw))
	}
	return rows.Err()
}

// valueFromSQL converts a scanned column value to a metric value. MySQL
// hands text columns back as []byte, so those go through the same typed
// parsing as CSV cells.
func valueFromSQL(raw any) metrics.Value {
	switch v := raw.(type) {
	case nil:
		return metrics.Text("")
	case []byte:
		return parseCell(string(v))
	case string:
		return parseCell(v)
	default:
		return metrics.FromAny(raw)
	}
}

// QueryCustom runs an arbitrary SQL query and returns the rows as column
// name to value maps.
func (s *SQL) QueryCustom(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("custom query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("custom query columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("custom query scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
