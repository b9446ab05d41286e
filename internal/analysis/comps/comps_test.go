package comps

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/compval/pkg/models"
)

// fakeSource serves canned metrics keyed by ticker.
type fakeSource struct {
	metrics map[string]*models.CompanyMetrics
	errs    map[string]error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetCompanyMetrics(ctx context.Context, ticker string) (*models.CompanyMetrics, error) {
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	m, ok := f.metrics[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return m, nil
}

// Twenty distinct keywords so each overlapping word is worth exactly 5%.
const targetDesc = "alpha bravo carbon delta echoes fabric gadget hotels invest " +
	"jungle kitten lemon mango nickel orange papaya quartz rabbit salmon tomato"

func screenTarget() *models.CompanyMetrics {
	return &models.CompanyMetrics{
		Ticker:      "TGT",
		CompanyName: "Target Foods",
		Description: targetDesc,
		MarketCap:   models.Some(1e9),
	}
}

func peerWith(overlap string, marketCap float64) *models.CompanyMetrics {
	return &models.CompanyMetrics{
		Ticker:      "PEER",
		CompanyName: "Peer Foods",
		Description: overlap + " zebra yonder willow velvet umber",
		MarketCap:   models.Some(marketCap),
	}
}

func TestFindComparablesAcceptsBandAndCap(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		// 3/20 overlap = 15%, market cap within ±75%.
		"AAA": peerWith("alpha bravo carbon", 1.2e9),
	}}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("comparables = %v, want [AAA]", got)
	}
}

func TestFindComparablesCapMismatchNeverExcludes(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		// 15% match but 10x the target's market cap: still accepted.
		"BIG": peerWith("alpha bravo carbon", 1e10),
	}}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"BIG"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("divergent-cap peer inside the keyword band was excluded: %v", got)
	}
}

func TestFindComparablesRejectsOutsideBand(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		// 25% match with an identical market cap: above the band, rejected.
		"TWIN": peerWith("alpha bravo carbon delta echoes", 1e9),
		// 5% match: below the band, rejected.
		"FAR": peerWith("alpha", 1e9),
	}}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"TWIN", "FAR"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("peers outside the keyword band were accepted: %v", got)
	}
}

func TestFindComparablesSkipsFailedFetches(t *testing.T) {
	src := &fakeSource{
		metrics: map[string]*models.CompanyMetrics{
			"AAA": peerWith("alpha bravo carbon", 1e9),
		},
		errs: map[string]error{"BAD": errors.New("boom")},
	}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"BAD", "AAA"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("comparables = %v, want [AAA]", got)
	}
}

func TestFindComparablesPreservesInputOrder(t *testing.T) {
	accept := func() *models.CompanyMetrics { return peerWith("alpha bravo carbon", 1e9) }
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		"CCC": accept(), "AAA": accept(), "BBB": accept(),
	}}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"CCC", "AAA", "BBB"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"CCC", "AAA", "BBB"}) {
		t.Errorf("comparables = %v, want input order [CCC AAA BBB]", got)
	}
}

func TestFindComparablesRequiresTargetMarketCap(t *testing.T) {
	src := &fakeSource{}
	s := NewScreener(src, DefaultScreenerParams())

	target := screenTarget()
	target.MarketCap = models.None()
	if _, err := s.FindComparables(context.Background(), target, []string{"AAA"}); err == nil {
		t.Error("expected error for target without market cap")
	}

	target.MarketCap = models.Some(0)
	if _, err := s.FindComparables(context.Background(), target, []string{"AAA"}); err == nil {
		t.Error("expected error for target with zero market cap")
	}
}

func TestFindComparablesUnsetMarketCapNotLoggedAsZero(t *testing.T) {
	logger := logrus.StandardLogger()
	var buf bytes.Buffer
	origOut, origLevel := logger.Out, logger.GetLevel()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	defer func() {
		logger.SetOutput(origOut)
		logger.SetLevel(origLevel)
	}()

	peer := peerWith("alpha bravo carbon", 0)
	peer.MarketCap = models.None()
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{"NOCAP": peer}}
	s := NewScreener(src, DefaultScreenerParams())

	got, err := s.FindComparables(context.Background(), screenTarget(), []string{"NOCAP"})
	if err != nil {
		t.Fatalf("FindComparables: %v", err)
	}
	// In-band match with unknown market cap still lands on the
	// keyword-only acceptance path.
	if len(got) != 1 {
		t.Errorf("comparables = %v, want [NOCAP]", got)
	}
	if strings.Contains(buf.String(), "market_cap=0") {
		t.Errorf("unset market cap logged as zero:\n%s", buf.String())
	}
}

func TestFindComparablesCancelledContext(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		"AAA": peerWith("alpha bravo carbon", 1e9),
	}}
	s := NewScreener(src, DefaultScreenerParams())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindComparables(ctx, screenTarget(), []string{"AAA"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want models.Optional
	}{
		{"odd", []float64{12, 8, 10}, models.Some(10)},
		{"even", []float64{10, 8}, models.Some(9)},
		{"single", []float64{7}, models.Some(7)},
		{"empty", nil, models.None()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.vals); got != tt.want {
				t.Errorf("Median(%v) = %+v, want %+v", tt.vals, got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	vals := []float64{3, 1, 2}
	Median(vals)
	if !reflect.DeepEqual(vals, []float64{3, 1, 2}) {
		t.Errorf("Median reordered its input: %v", vals)
	}
}

func TestValuateFairValues(t *testing.T) {
	// Comparable multiples: P/E {10, 12} → median 11; EV/EBITDA {9, 11} →
	// median 10. Target: earnings 5e7, EBITDA 1e8, 1e7 shares.
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		"CMP1": {
			Ticker:    "CMP1",
			Price:     models.Some(100),
			Earnings:  models.Some(10),
			Ebitda:    models.Some(100),
			MarketCap: models.Some(900),
		},
		"CMP2": {
			Ticker:    "CMP2",
			Price:     models.Some(120),
			Earnings:  models.Some(10),
			Ebitda:    models.Some(100),
			MarketCap: models.Some(1100),
		},
	}}
	target := &models.CompanyMetrics{
		Ticker:            "TGT",
		Price:             models.Some(50),
		Earnings:          models.Some(5e7),
		Ebitda:            models.Some(1e8),
		SharesOutstanding: models.Some(1e7),
	}

	v, err := Valuate(context.Background(), src, target, []string{"CMP1", "CMP2"})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}

	if got := v.MedianPE; got != models.Some(11) {
		t.Errorf("median P/E = %+v, want 11", got)
	}
	if got := v.MedianEVEbitda; got != models.Some(10) {
		t.Errorf("median EV/EBITDA = %+v, want 10", got)
	}

	if !v.PE.Applicable() || v.PE.Value.Float() != 55.0 {
		t.Errorf("P/E fair value = %+v, want 55.0", v.PE)
	}
	if !v.EVEbitda.Applicable() || v.EVEbitda.Value.Float() != 100.0 {
		t.Errorf("EV/EBITDA fair value = %+v, want 100.0", v.EVEbitda)
	}
}

func TestEVEbitdaEstimatePerShare(t *testing.T) {
	target := &models.CompanyMetrics{
		Ticker:            "TGT",
		Ebitda:            models.Some(1e6),
		SharesOutstanding: models.Some(5e5),
	}

	est := evEbitdaEstimate(target, models.Some(8))
	if !est.Applicable() || est.Value.Float() != 16.0 {
		t.Errorf("EV/EBITDA estimate = %+v, want 16.0", est)
	}

	est = evEbitdaEstimate(target, models.None())
	if est.Applicable() {
		t.Errorf("estimate without a median must be inapplicable: %+v", est)
	}
}

func TestValuatePEInapplicableForNegativeEarnings(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		"CMP": {
			Ticker:    "CMP",
			Price:     models.Some(100),
			Earnings:  models.Some(10),
			Ebitda:    models.Some(100),
			MarketCap: models.Some(1000),
		},
	}}
	target := &models.CompanyMetrics{
		Ticker:            "TGT",
		Earnings:          models.Some(-5e7),
		Ebitda:            models.Some(1e8),
		SharesOutstanding: models.Some(1e7),
	}

	v, err := Valuate(context.Background(), src, target, []string{"CMP"})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if v.PE.Applicable() {
		t.Errorf("P/E should be inapplicable for negative earnings: %+v", v.PE)
	}
	if v.PE.Reason != ReasonNoEarnings {
		t.Errorf("P/E reason = %q, want %q", v.PE.Reason, ReasonNoEarnings)
	}
	if !v.EVEbitda.Applicable() {
		t.Errorf("EV/EBITDA should still apply: %+v", v.EVEbitda)
	}
}

func TestValuateSkipsNonPositiveComparableFields(t *testing.T) {
	src := &fakeSource{metrics: map[string]*models.CompanyMetrics{
		// Negative earnings and EBITDA contribute to neither sample.
		"LOSS": {
			Ticker:    "LOSS",
			Price:     models.Some(40),
			Earnings:  models.Some(-5),
			Ebitda:    models.Some(-10),
			MarketCap: models.Some(800),
		},
		"GOOD": {
			Ticker:    "GOOD",
			Price:     models.Some(80),
			Earnings:  models.Some(8),
			Ebitda:    models.Some(50),
			MarketCap: models.Some(600),
		},
	}}
	target := &models.CompanyMetrics{
		Ticker:            "TGT",
		Earnings:          models.Some(10),
		Ebitda:            models.Some(20),
		SharesOutstanding: models.Some(10),
	}

	v, err := Valuate(context.Background(), src, target, []string{"LOSS", "GOOD"})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if len(v.PESample) != 1 || len(v.EVEbitdaSample) != 1 {
		t.Errorf("samples = P/E %v, EV/EBITDA %v, want one entry each",
			v.PESample, v.EVEbitdaSample)
	}
}

func TestValuateDropsFailedComparables(t *testing.T) {
	src := &fakeSource{
		metrics: map[string]*models.CompanyMetrics{
			"GOOD": {
				Ticker:    "GOOD",
				Price:     models.Some(80),
				Earnings:  models.Some(8),
				Ebitda:    models.Some(50),
				MarketCap: models.Some(600),
			},
		},
		errs: map[string]error{"BAD": errors.New("boom")},
	}
	target := &models.CompanyMetrics{
		Ticker:            "TGT",
		Earnings:          models.Some(10),
		Ebitda:            models.Some(20),
		SharesOutstanding: models.Some(10),
	}

	v, err := Valuate(context.Background(), src, target, []string{"BAD", "GOOD"})
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if len(v.PESample) != 1 {
		t.Errorf("P/E sample = %v, want the failed comparable dropped", v.PESample)
	}
}

func TestPctDiff(t *testing.T) {
	if got := PctDiff(models.Some(55), models.Some(50)); got != models.Some(10) {
		t.Errorf("PctDiff(55, 50) = %+v, want 10", got)
	}
	if got := PctDiff(models.None(), models.Some(50)); got.IsSet() {
		t.Errorf("PctDiff with absent fair value should be absent, got %+v", got)
	}
	if got := PctDiff(models.Some(55), models.Some(0)); got.IsSet() {
		t.Errorf("PctDiff with zero price should be absent, got %+v", got)
	}
}

func TestResultRows(t *testing.T) {
	v := &Valuation{
		Target: &models.CompanyMetrics{
			Ticker: "TGT",
			Price:  models.Some(50),
		},
		EVEbitda: models.FairValueEstimate{Method: models.MethodEVEbitda, Value: models.Some(100)},
		PE:       models.FairValueEstimate{Method: models.MethodPE, Reason: ReasonNoEarnings},
	}

	rows := v.ResultRows()
	want := []models.ResultRow{
		{Stock: "TGT", Metric: "EV/EBITDA Fair Value", Value: "100"},
		{Stock: "TGT", Metric: "P/E Fair Value", Value: "N/A (Negative Earnings)"},
		{Stock: "TGT", Metric: "Current Price", Value: "50"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ResultRows = %v, want %v", rows, want)
	}
}
