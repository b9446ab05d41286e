// Package comps implements the core comparable-company logic: screening a
// candidate peer list against a target by keyword overlap and market-cap
// tolerance, then deriving fair-value-per-share estimates from the median
// multiples of the accepted set.
package comps

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/compval/internal/analysis/keywords"
	"github.com/seenimoa/compval/internal/datasource"
	"github.com/seenimoa/compval/pkg/models"
)

// ScreenerParams tune the peer acceptance rule.
type ScreenerParams struct {
	// Tolerance is the maximum relative market-cap deviation from the
	// target (0.75 = ±75%).
	Tolerance float64

	// MinMatchPct and MaxMatchPct bound the accepted keyword-overlap band.
	// The band is deliberately narrow and low: it selects "same industry,
	// similar narrative" peers, not near-identical descriptions.
	MinMatchPct float64
	MaxMatchPct float64

	// FetchConcurrency caps parallel peer fetches. Results are always
	// collected in input order, so concurrency never changes the output.
	FetchConcurrency int
}

// DefaultScreenerParams returns the standard acceptance thresholds.
func DefaultScreenerParams() ScreenerParams {
	return ScreenerParams{
		Tolerance:        0.75,
		MinMatchPct:      11,
		MaxMatchPct:      19,
		FetchConcurrency: 4,
	}
}

// Screener selects comparable companies for a target from a candidate list.
type Screener struct {
	source datasource.DataSource
	params ScreenerParams
}

// NewScreener creates a screener backed by the given data source.
func NewScreener(source datasource.DataSource, params ScreenerParams) *Screener {
	if params.FetchConcurrency <= 0 {
		params.FetchConcurrency = 1
	}
	return &Screener{source: source, params: params}
}

// FindComparables returns the subset of candidate peer tickers accepted as
// comparables, in input order. A peer is accepted when its keyword match
// with the target falls inside [MinMatchPct, MaxMatchPct]; a known market
// cap within tolerance is an additional acceptance path, never a rejection
// path on its own. Peers whose fetch fails are skipped.
func (s *Screener) FindComparables(ctx context.Context, target *models.CompanyMetrics, peers []string) ([]string, error) {
	if !target.MarketCap.IsSet() || target.MarketCap.Float() == 0 {
		return nil, fmt.Errorf("target %s has no market cap to screen against", target.Ticker)
	}

	targetKeywords := keywords.Extract(target.Description, target.CompanyName)
	logrus.WithFields(logrus.Fields{
		"ticker":   target.Ticker,
		"keywords": len(targetKeywords),
	}).Debug("extracted target keywords")

	peerMetrics := s.fetchPeers(ctx, peers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var comparables []string
	for i, peer := range peers {
		m := peerMetrics[i]
		if m == nil {
			continue // fetch failed, peer excluded
		}

		peerKeywords := keywords.Extract(m.Description, m.CompanyName)
		match := keywords.MatchPercent(targetKeywords, peerKeywords)

		log := logrus.WithFields(logrus.Fields{
			"peer":      peer,
			"match_pct": fmt.Sprintf("%.2f", match),
			"industry":  m.Industry,
		})
		// An unset market cap is not the same as a zero one; leave the
		// field out entirely rather than logging 0.
		if m.MarketCap.IsSet() {
			log = log.WithField("market_cap", m.MarketCap.Float())
		}

		inBand := match >= s.params.MinMatchPct && match <= s.params.MaxMatchPct

		capDeviation := math.Inf(1)
		if m.MarketCap.IsSet() {
			capDeviation = math.Abs(m.MarketCap.Float()-target.MarketCap.Float()) / target.MarketCap.Float()
		}

		switch {
		case inBand && m.MarketCap.IsSet() && capDeviation <= s.params.Tolerance:
			log.Debug("peer accepted: keyword band and market-cap tolerance")
			comparables = append(comparables, peer)
		case inBand:
			// Market-cap mismatch never excludes a keyword-matched peer.
			log.Debug("peer accepted on keyword match alone")
			comparables = append(comparables, peer)
		default:
			log.Debug("peer rejected")
		}
	}

	return comparables, nil
}

// fetchPeers retrieves metrics for every candidate in parallel, keeping
// results indexed by input position. Failed fetches leave a nil slot.
func (s *Screener) fetchPeers(ctx context.Context, peers []string) []*models.CompanyMetrics {
	out := make([]*models.CompanyMetrics, len(peers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.FetchConcurrency)

	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			m, err := s.source.GetCompanyMetrics(gctx, peer)
			if err != nil {
				logrus.WithField("peer", peer).WithError(err).Warn("skipping peer: fetch failed")
				return nil
			}
			out[i] = m
			return nil
		})
	}

	// Fetch errors are swallowed per peer, so Wait only propagates
	// context cancellation, which the caller re-checks.
	_ = g.Wait()
	return out
}
