package inventory

// Aggregate folds entries into per-family subtotals and a grand total.
// Every entry is counted exactly once; no filtering or deduplication. An
// empty input yields a zero-valued summary with all families present.
func Aggregate(entries []Entry) CostSummary {
	summary := CostSummary{Families: make(map[Family]FamilyTotal, len(AllFamilies()))}
	for _, f := range AllFamilies() {
		summary.Families[f] = FamilyTotal{}
	}

	for _, e := range entries {
		t := summary.Families[e.Family]
		t.Count++
		t.MonthlyCost += e.MonthlyCost
		summary.Families[e.Family] = t
	}

	for _, t := range summary.Families {
		summary.Total += t.MonthlyCost
	}
	return summary
}
