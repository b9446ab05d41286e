// Package models defines the shared data types used across compval:
// company fundamentals, fair-value estimates, and result rows.
package models

// Optional is a fundamental that may be absent from a provider response.
// Providers return dictionary-shaped data where any key can be missing;
// an absent key decodes to an unset Optional, never a lookup failure.
type Optional struct {
	Val   float64 `json:"value"`
	Known bool    `json:"known"`
}

// Some returns a present Optional holding v.
func Some(v float64) Optional {
	return Optional{Val: v, Known: true}
}

// None returns an absent Optional.
func None() Optional {
	return Optional{}
}

// IsSet reports whether the value is present.
func (o Optional) IsSet() bool { return o.Known }

// Float returns the value, or 0 when absent.
func (o Optional) Float() float64 {
	if !o.Known {
		return 0
	}
	return o.Val
}

// Positive reports whether the value is present and strictly positive.
func (o Optional) Positive() bool { return o.Known && o.Val > 0 }

// CompanyMetrics holds the fundamentals and profile text for one ticker.
// One instance is fetched fresh per ticker per run and never mutated
// after construction. Empty strings mean the field was absent.
type CompanyMetrics struct {
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`

	Price             Optional `json:"price"`
	Earnings          Optional `json:"earnings"`
	Ebitda            Optional `json:"ebitda"`
	Revenue           Optional `json:"revenue"`
	MarketCap         Optional `json:"market_cap"`
	SharesOutstanding Optional `json:"shares_outstanding"`
}

// Valuation method names.
const (
	MethodPE       = "P/E"
	MethodEVEbitda = "EV/EBITDA"
)

// FairValueEstimate is a per-method fair-value-per-share estimate.
// When the method is inapplicable the value is unset and Reason says why.
type FairValueEstimate struct {
	Method string   `json:"method"`
	Value  Optional `json:"value"`
	Reason string   `json:"reason,omitempty"`
}

// Applicable reports whether the method produced a numeric estimate.
func (e FairValueEstimate) Applicable() bool { return e.Value.IsSet() }

// ResultRow is one append-only record in the persistent results store.
type ResultRow struct {
	Stock  string `json:"stock"`
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Empty reports whether every field of the row is blank. Fully-empty rows
// are dropped before persisting.
func (r ResultRow) Empty() bool {
	return r.Stock == "" && r.Metric == "" && r.Value == ""
}
