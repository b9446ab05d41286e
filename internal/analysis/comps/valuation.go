package comps

import (
	"context"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/compval/internal/datasource"
	"github.com/seenimoa/compval/pkg/models"
)

// ReasonNoEarnings marks a P/E estimate that cannot be computed.
const ReasonNoEarnings = "negative or missing earnings"

// Valuation is the outcome of a comparable-company analysis: the multiple
// samples collected from the comparables, their medians, and the per-method
// fair-value estimates for the target.
type Valuation struct {
	Target      *models.CompanyMetrics
	Comparables []string

	PESample       []float64
	EVEbitdaSample []float64

	MedianPE       models.Optional
	MedianEVEbitda models.Optional

	EVEbitda models.FairValueEstimate
	PE       models.FairValueEstimate
}

// Valuate computes fair-value-per-share estimates for the target from the
// accepted comparable set. A comparable whose fetch fails is dropped from
// the samples; only fields that pass the validity preconditions contribute.
func Valuate(ctx context.Context, source datasource.DataSource, target *models.CompanyMetrics, comparables []string) (*Valuation, error) {
	v := &Valuation{
		Target:      target,
		Comparables: comparables,
	}

	for _, ticker := range comparables {
		m, err := source.GetCompanyMetrics(ctx, ticker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logrus.WithField("comparable", ticker).WithError(err).Warn("dropping comparable: fetch failed")
			continue
		}

		// P/E needs a price and strictly positive earnings.
		if m.Price.IsSet() && m.Earnings.Positive() {
			v.PESample = append(v.PESample, m.Price.Float()/m.Earnings.Float())
		}

		// Enterprise value is simplified to market cap; debt and cash are
		// deliberately ignored.
		if m.Ebitda.Positive() && m.MarketCap.IsSet() {
			v.EVEbitdaSample = append(v.EVEbitdaSample, m.MarketCap.Float()/m.Ebitda.Float())
		}
	}

	v.MedianPE = Median(v.PESample)
	v.MedianEVEbitda = Median(v.EVEbitdaSample)

	logrus.WithFields(logrus.Fields{
		"pe_sample":        len(v.PESample),
		"ev_ebitda_sample": len(v.EVEbitdaSample),
		"median_pe":        v.MedianPE.Float(),
		"median_ev_ebitda": v.MedianEVEbitda.Float(),
	}).Debug("collected comparable multiples")

	v.EVEbitda = evEbitdaEstimate(target, v.MedianEVEbitda)
	v.PE = peEstimate(target, v.MedianPE)

	return v, nil
}

// Median returns the sample median: middle value for odd counts, mean of
// the two middle values for even counts. Absent for an empty sample.
func Median(vals []float64) models.Optional {
	if len(vals) == 0 {
		return models.None()
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return models.Some((sorted[mid-1] + sorted[mid]) / 2)
	}
	return models.Some(sorted[mid])
}

// evEbitdaEstimate applies the median EV/EBITDA multiple to the target's
// EBITDA, per share.
func evEbitdaEstimate(target *models.CompanyMetrics, median models.Optional) models.FairValueEstimate {
	est := models.FairValueEstimate{Method: models.MethodEVEbitda}

	if median.IsSet() && target.Ebitda.IsSet() && target.SharesOutstanding.Positive() {
		est.Value = models.Some(median.Float() * target.Ebitda.Float() / target.SharesOutstanding.Float())
		return est
	}

	est.Reason = "missing EBITDA, comparables, or shares outstanding"
	return est
}

// peEstimate applies the median P/E multiple to the target's earnings, per
// share. Inapplicable whenever earnings are missing or not positive.
func peEstimate(target *models.CompanyMetrics, median models.Optional) models.FairValueEstimate {
	est := models.FairValueEstimate{Method: models.MethodPE}

	if target.Earnings.Positive() && median.IsSet() && target.SharesOutstanding.Positive() {
		est.Value = models.Some(median.Float() * target.Earnings.Float() / target.SharesOutstanding.Float())
		return est
	}

	est.Reason = ReasonNoEarnings
	return est
}

// PctDiff is the percentage difference of a fair value from the current
// price: (fair − price) / price × 100. Absent unless both operands are.
func PctDiff(fair, price models.Optional) models.Optional {
	if !fair.IsSet() || !price.IsSet() || price.Float() == 0 {
		return models.None()
	}
	return models.Some((fair.Float() - price.Float()) / price.Float() * 100)
}

// ResultRows builds the three rows persisted after a successful run:
// EV/EBITDA fair value, P/E fair value (or its inapplicability note), and
// the current price.
func (v *Valuation) ResultRows() []models.ResultRow {
	ticker := v.Target.Ticker
	return []models.ResultRow{
		{Stock: ticker, Metric: "EV/EBITDA Fair Value", Value: formatValue(v.EVEbitda.Value, "N/A")},
		{Stock: ticker, Metric: "P/E Fair Value", Value: formatValue(v.PE.Value, "N/A (Negative Earnings)")},
		{Stock: ticker, Metric: "Current Price", Value: formatValue(v.Target.Price, "N/A")},
	}
}

func formatValue(v models.Optional, absent string) string {
	if !v.IsSet() {
		return absent
	}
	return strconv.FormatFloat(v.Float(), 'f', -1, 64)
}
