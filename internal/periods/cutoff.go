package periods

import "sort"

// UpTo returns the periods at or before target, ordered by (year, month).
// A nil target means no cutoff: every period qualifies. Every cumulative
// aggregation in the ledger (costs, billings, revenue) must scope itself
// through this one function so the cutoff semantics never diverge between
// call sites.
func UpTo(all []Period, target *Period) []Period {
	out := make([]Period, 0, len(all))
	for _, p := range all {
		if target == nil || includedInCutoff(p, *target) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IDsUpTo returns the period id set at or before target, keyed for membership
// checks when filtering ledger rows.
func IDsUpTo(all []Period, target *Period) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, p := range UpTo(all, target) {
		ids[p.ID] = struct{}{}
	}
	return ids
}

func includedInCutoff(p, target Period) bool {
	if p.Year != target.Year {
		return p.Year < target.Year
	}
	return p.Month <= target.Month
}
