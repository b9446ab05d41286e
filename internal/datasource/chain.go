package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/compval/pkg/models"
)

// Chain tries each configured source in order until one returns metrics.
// A NotFound from one source still falls through: the web pages sometimes
// know tickers the JSON API refuses and vice versa.
type Chain struct {
	sources []DataSource
}

// NewChain creates a data source that falls back through sources in order.
func NewChain(sources ...DataSource) *Chain {
	return &Chain{sources: sources}
}

// Name returns the joined names of the chained sources.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, " -> ")
}

// GetCompanyMetrics queries each source in order, returning the first
// successful result. Context cancellation stops the chain immediately.
func (c *Chain) GetCompanyMetrics(ctx context.Context, ticker string) (*models.CompanyMetrics, error) {
	if len(c.sources) == 0 {
		return nil, ErrNotSupported
	}

	var lastErr error
	for _, s := range c.sources {
		metrics, err := s.GetCompanyMetrics(ctx, ticker)
		if err == nil {
			return metrics, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"source": s.Name(),
			"ticker": ticker,
		}).WithError(err).Debug("source failed, trying next")
		lastErr = err
	}

	return nil, fmt.Errorf("all sources failed for %s: %w", ticker, lastErr)
}
