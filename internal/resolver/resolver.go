// Package resolver validates a user-supplied ticker against the market-data
// provider and applies an injected confirmation strategy. Resolution itself
// is pure (ticker in, metrics or NotFound out); the interactive prompt lives
// with the caller so the pipeline stays testable without a terminal.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/compval/internal/datasource"
	"github.com/seenimoa/compval/pkg/models"
)

// ErrDeclined is returned when the user rejects the resolved ticker.
var ErrDeclined = errors.New("no valid stock selected")

// Confirmer decides whether a resolved company is the one the user meant.
// Only an affirmative answer accepts; anything else rejects.
type Confirmer func(*models.CompanyMetrics) bool

// Resolve looks up the input against the data source and returns the
// company's metrics. A lookup with no resolvable company name surfaces as
// datasource.ErrTickerNotFound.
func Resolve(ctx context.Context, source datasource.DataSource, input string) (*models.CompanyMetrics, error) {
	symbol := strings.TrimSpace(input)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty input", datasource.ErrTickerNotFound)
	}
	return source.GetCompanyMetrics(ctx, symbol)
}

// ResolveConfirmed resolves the input and passes the result through the
// confirmation strategy. A nil confirmer accepts unconditionally.
func ResolveConfirmed(ctx context.Context, source datasource.DataSource, input string, confirm Confirmer) (*models.CompanyMetrics, error) {
	metrics, err := Resolve(ctx, source, input)
	if err != nil {
		return nil, err
	}
	if confirm != nil && !confirm(metrics) {
		return nil, ErrDeclined
	}
	return metrics, nil
}
