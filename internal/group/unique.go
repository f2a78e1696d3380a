package group

import "github.com/Nao-Mk2/xdebug-race-inspector/internal/model"

// Unique drops traces that are exact duplicates (same calls, same order)
// of another. The order of the returned traces is unspecified.
func Unique(traces []model.Trace) []model.Trace {
	seen := make(map[string]model.Trace, len(traces))
	for _, t := range traces {
		k := t.Key()
		if _, ok := seen[k]; !ok {
			seen[k] = t
		}
	}
	out := make([]model.Trace, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	return out
}

// StableUnique is Unique keeping the first occurrence order.
func StableUnique(traces []model.Trace) []model.Trace {
	seen := make(map[string]struct{}, len(traces))
	out := make([]model.Trace, 0, len(traces))
	for _, t := range traces {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
