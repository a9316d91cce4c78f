package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// CSV reads dimension metrics from a CSV file. Two layouts are supported: a
// long layout with dimension, metric_name, and metric_value columns, and a
// wide layout whose headers carry dimension prefixes (results_, process_,
// support_, longterm_) with the values in the first data row.
type CSV struct {
	path string
}

// NewCSV creates a CSV source for the given file.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Name implements Source.
func (c *CSV) Name() string { return "csv" }

// Fetch reads and parses the metrics file.
func (c *CSV) Fetch(ctx context.Context) (metrics.Context, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return metrics.Context{}, fmt.Errorf("opening metrics file: %w", err)
	}
	defer f.Close()

	return parseMetricsCSV(f)
}

// parseMetricsCSV detects the layout from the header row and parses
// accordingly. A "dimension" column selects the long layout.
func parseMetricsCSV(r io.Reader) (metrics.Context, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return metrics.Context{}, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) < 2 {
		return metrics.Context{}, fmt.Errorf("CSV has no data rows (got %d rows)", len(records))
	}

	header := records[0]
	dimIdx, nameIdx, valueIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "dimension":
			dimIdx = i
		case "metric_name":
			nameIdx = i
		case "metric_value":
			valueIdx = i
		}
	}

	if dimIdx >= 0 {
		if nameIdx < 0 || valueIdx < 0 {
			return metrics.Context{}, fmt.Errorf("CSV long layout requires metric_name and metric_value columns")
		}
		return parseLongCSV(records[1:], dimIdx, nameIdx, valueIdx), nil
	}
	return parseWideCSV(header, records[1]), nil
}

func parseLongCSV(rows [][]string, dimIdx, nameIdx, valueIdx int) metrics.Context {
	var data metrics.Context
	for _, row := range rows {
		if len(row) <= dimIdx || len(row) <= nameIdx || len(row) <= valueIdx {
			continue
		}
		dim := metrics.Dimension(strings.ToLower(strings.TrimSpace(row[dimIdx])))
		group := data.Group(dim)
		if group == nil {
			log.Printf("csv: skipping row with unknown dimension %q", row[dimIdx])
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		group.Set(name, parseCell(row[valueIdx]))
	}
	return data
}

func parseWideCSV(header, row []string) metrics.Context {
	var data metrics.Context
	for i, col := range header {
		if i >= len(row) {
			break
		}
		colName := strings.TrimSpace(col)
		lower := strings.ToLower(colName)
		for _, d := range metrics.Dimensions {
			prefix := string(d) + "_"
			if strings.HasPrefix(lower, prefix) {
				data.Group(d).Set(colName[len(prefix):], parseCell(row[i]))
				break
			}
		}
	}
	return data
}

// parseCell converts a CSV cell to a typed metric value. Integers are tried
// before booleans so "1" stays numeric.
func parseCell(s string) metrics.Value {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return metrics.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return metrics.Float(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return metrics.Bool(b)
	}
	return metrics.Text(s)
}
