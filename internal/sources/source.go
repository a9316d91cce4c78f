// Package sources provides metric sources for attribution analysis. Static
// demo scenarios, SQL databases, and CSV files all surface the same
// dimension-grouped data context.
package sources

import (
	"context"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// Source provides dimension-grouped metrics.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Fetch returns the full data context.
	Fetch(ctx context.Context) (metrics.Context, error)
}
