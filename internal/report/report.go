// Package report renders the human-readable summary of a valuation run:
// the target's metrics, the per-method fair values, and their percentage
// difference from the current price.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/seenimoa/compval/internal/analysis/comps"
	"github.com/seenimoa/compval/pkg/models"
)

// Print writes the run summary to w.
func Print(w io.Writer, v *comps.Valuation) {
	t := v.Target

	fmt.Fprintf(w, "\nTarget Company (%s) Metrics:\n", t.Ticker)
	fmt.Fprintf(w, "  Company Name:       %s\n", orNA(t.CompanyName))
	fmt.Fprintf(w, "  Industry:           %s\n", orNA(t.Industry))
	fmt.Fprintf(w, "  Price:              %s\n", num(t.Price))
	fmt.Fprintf(w, "  Earnings:           %s\n", num(t.Earnings))
	fmt.Fprintf(w, "  EBITDA:             %s\n", num(t.Ebitda))
	fmt.Fprintf(w, "  Revenue:            %s\n", num(t.Revenue))
	fmt.Fprintf(w, "  Market Cap:         %s\n", num(t.MarketCap))
	fmt.Fprintf(w, "  Shares Outstanding: %s\n", num(t.SharesOutstanding))

	fmt.Fprintf(w, "\nComparables (%d): %v\n", len(v.Comparables), v.Comparables)

	fmt.Fprintln(w, "\nFair Values Based on Comparables:")
	printEstimate(w, v.EVEbitda)
	printEstimate(w, v.PE)

	if diff := comps.PctDiff(v.EVEbitda.Value, t.Price); diff.IsSet() {
		fmt.Fprintf(w, "\nEV/EBITDA Fair Value Price: %.2f, Percentage Difference: %.2f%%\n",
			v.EVEbitda.Value.Float(), diff.Float())
	}
	if diff := comps.PctDiff(v.PE.Value, t.Price); diff.IsSet() {
		fmt.Fprintf(w, "P/E Fair Value Price: %.2f, Percentage Difference: %.2f%%\n",
			v.PE.Value.Float(), diff.Float())
	}
}

func printEstimate(w io.Writer, est models.FairValueEstimate) {
	if est.Applicable() {
		fmt.Fprintf(w, "  %s: %.2f\n", est.Method, est.Value.Float())
		return
	}
	fmt.Fprintf(w, "  %s: N/A (%s)\n", est.Method, est.Reason)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func num(o models.Optional) string {
	if !o.IsSet() {
		return "N/A"
	}
	return strconv.FormatFloat(o.Float(), 'f', -1, 64)
}
