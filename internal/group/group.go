// Package group buckets traces by the tables their calls touch and removes
// duplicate traces.
package group

import "github.com/Nao-Mk2/xdebug-race-inspector/internal/model"

// TableExtractor infers the tables a call references.
type TableExtractor interface {
	Extract(text string) model.TableSet
}

// Group maps every table of tables to one reduced trace per input trace,
// holding in order the calls of that trace that reference the table.
// Reduced traces may be empty.
func Group(ex TableExtractor, traces []model.Trace, tables model.TableSet) model.GroupedResult {
	res := make(model.GroupedResult, len(tables))
	for t := range tables {
		res[t] = make([]model.Trace, 0, len(traces))
	}
	for _, tr := range traces {
		scratch := make(map[string]model.Trace, len(tables))
		for _, c := range tr {
			for t := range ex.Extract(c.RawText) {
				if !tables.Has(t) {
					continue
				}
				scratch[t] = append(scratch[t], c)
			}
		}
		for t := range tables {
			res[t] = append(res[t], scratch[t])
		}
	}
	return res
}
