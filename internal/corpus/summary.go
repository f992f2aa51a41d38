package corpus

import (
	"fmt"
	"io"

	"github.com/matsen/synthscan/internal/features"
)

// Summarize computes per-field counts and percentages. The result depends
// only on the multiset of records, not their order.
func Summarize(records []Record, skipped int) Summary {
	counts := make([]int, len(features.BoolFields))
	hints := make(map[features.MethodHint]int)
	for _, r := range records {
		for i, set := range r.Features.Bools() {
			if set {
				counts[i]++
			}
		}
		hints[r.Features.SynthesisMethodHint]++
	}
	return NewSummary(len(records), skipped, counts, hints)
}

// NewSummary builds a summary from counts given in BoolFields order, for
// callers that aggregate elsewhere (the SQLite store does it in SQL).
func NewSummary(total, skipped int, counts []int, hints map[features.MethodHint]int) Summary {
	s := Summary{
		Total:       total,
		Skipped:     skipped,
		Fields:      make([]FieldCount, len(features.BoolFields)),
		MethodHints: make(map[features.MethodHint]int, len(features.MethodHints)),
	}
	for _, h := range features.MethodHints {
		s.MethodHints[h] = 0
	}
	for h, n := range hints {
		s.MethodHints[h] = n
	}
	for i, field := range features.BoolFields {
		s.Fields[i].Field = field
		if i < len(counts) {
			s.Fields[i].Count = counts[i]
		}
		s.Fields[i].Percent = percent(s.Fields[i].Count, total)
	}
	return s
}

// Count returns the count for a field, or 0 if the field is unknown.
func (s Summary) Count(field string) int {
	for _, fc := range s.Fields {
		if fc.Field == field {
			return fc.Count
		}
	}
	return 0
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// summaryLabels are the terminal labels for each boolean field.
var summaryLabels = map[string]string{
	features.FieldTemperature:             "Temp Reported:",
	features.FieldTime:                    "Time Reported:",
	features.FieldCoolingInfo:             "Cooling Info:",
	features.FieldCoolingData:             "Cooling Data:",
	features.FieldChalcogenPressure:       "S(e) Pressure (Explicit):",
	features.FieldTinChalcogenidePressure: "SnS(e) Pressure (Explicit):",
	features.FieldPressureCalculable:      "Pressure (Calc.):",
}

// WriteHuman prints the summary as a terminal block.
func (s Summary) WriteHuman(w io.Writer) {
	rule := "=============================="
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SCAN COMPLETE. SUMMARY:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-28s %d\n", "Total Papers Scanned:", s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "%-28s %d\n", "Unreadable (skipped):", s.Skipped)
	}
	for _, fc := range s.Fields {
		fmt.Fprintf(w, "%-28s %d (%.1f%%)\n", summaryLabels[fc.Field], fc.Count, fc.Percent)
	}
	fmt.Fprintln(w, "Method hints:")
	for _, h := range features.MethodHints {
		fmt.Fprintf(w, "  %-26s %d (%.1f%%)\n", string(h)+":", s.MethodHints[h], percent(s.MethodHints[h], s.Total))
	}
	fmt.Fprintln(w, rule)
}
