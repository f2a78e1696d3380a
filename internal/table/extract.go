// Package table infers target table names from SQL call text using a
// keyword heuristic. It is not an SQL parser: a statement with several
// keywords may yield several candidates.
package table

import (
	"strings"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
)

// DefaultKeywords are checked in this order, all of them, for every call.
var DefaultKeywords = []string{"FROM", "UPDATE", "INTO", "TABLE", "JOIN"}

// DefaultDelimiters end a table token.
const DefaultDelimiters = `; "`

// Extractor applies the keyword rules to call text.
type Extractor struct {
	Keywords   []string
	Delimiters string
}

// NewExtractor returns an Extractor with the default rules.
func NewExtractor() *Extractor {
	return &Extractor{Keywords: DefaultKeywords, Delimiters: DefaultDelimiters}
}

// Extract returns the set of candidate tables referenced by text.
// For each keyword present, the text between its first and second
// occurrence is trimmed and cut at the first delimiter. Empty candidates
// are discarded.
func (e *Extractor) Extract(text string) model.TableSet {
	tables := model.TableSet{}
	for _, kw := range e.Keywords {
		if kw == "" || !strings.Contains(text, kw) {
			continue
		}
		seg := strings.Split(text, kw)[1]
		seg = strings.TrimSpace(seg)
		if i := strings.IndexAny(seg, e.Delimiters); i >= 0 {
			seg = seg[:i]
		}
		if seg != "" {
			tables.Add(seg)
		}
	}
	return tables
}

// Universe returns the union of Extract over every call of every trace.
func (e *Extractor) Universe(traces []model.Trace) model.TableSet {
	all := model.TableSet{}
	for _, t := range traces {
		for _, c := range t {
			all.Union(e.Extract(c.RawText))
		}
	}
	return all
}
