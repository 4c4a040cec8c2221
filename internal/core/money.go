// Package core holds the pure domain logic of the disbursement dashboard:
// totals arithmetic, calendar-period handling, and plan/request
// reconciliation. Nothing in this package performs I/O.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary or percentage figure as it arrives from the document
// store. Documents written by the original UI carry amounts as numbers,
// numeric strings, or garbage; decoding never fails and anything that is not
// a finite number becomes 0. This leniency is deliberate and load-bearing.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float())
}

// Float returns the value with NaN/Inf coerced to 0.
func (a Amount) Float() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Totals are the derived figures of one disbursement request. Retention is a
// reserved field and is always 0; it is carried so the wire shape stays
// stable for consumers.
type Totals struct {
	Requested float64 `json:"requested"`
	Tax       float64 `json:"tax"`
	Retention float64 `json:"retention"`
	Payable   float64 `json:"payable"`
}

// CalcDisbursement sums the request's line items into base totals.
//
//	requested = sum(amount)
//	tax       = sum(amount * taxRate / 100)
//	payable   = requested + tax - advanceDeduction
//
// Invalid numeric inputs count as 0. No rounding is applied; callers round
// only for display.
func CalcDisbursement(items []DisbursementItem, advanceDeduction float64) Totals {
	var requested, tax float64
	for _, it := range items {
		requested += it.Amount.Float()
		tax += it.Amount.Float() * it.TaxRate.Float() / 100
	}
	if math.IsNaN(advanceDeduction) || math.IsInf(advanceDeduction, 0) {
		advanceDeduction = 0
	}
	return Totals{
		Requested: requested,
		Tax:       tax,
		Retention: 0,
		Payable:   requested + tax - advanceDeduction,
	}
}

// Scale applies the completion-percentage composition rule: every figure is
// multiplied by pct/100 to yield the amount attributable to the declared
// progress. Callers must apply this wherever a request's contribution to a
// period is tallied.
func (t Totals) Scale(pct float64) Totals {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = 0
	}
	f := pct / 100
	return Totals{
		Requested: t.Requested * f,
		Tax:       t.Tax * f,
		Retention: t.Retention * f,
		Payable:   t.Payable * f,
	}
}

// FormatMoney renders n with vi-VN digit grouping (dots every three digits,
// no decimals), matching what the dashboard displays next to "VNĐ".
func FormatMoney(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	neg := n < 0
	v := int64(math.Round(math.Abs(n)))
	s := strconv.FormatInt(v, 10)

	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte('.')
		b.WriteString(s[i : i+3])
	}
	if neg && v != 0 {
		return "-" + b.String()
	}
	return b.String()
}
