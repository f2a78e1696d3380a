package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedLocation is returned when a call line does not end with a
// "file:line" token.
var ErrMalformedLocation = errors.New("malformed call location")

// CallRecord is one SQL preparation call taken from a trace line.
// RawText has the shape "<SQL statement> <file>:<line>".
type CallRecord struct {
	RawText string
}

// Location is the source position a call was made from.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// SQL returns the statement part of the record, without the location token.
func (c CallRecord) SQL() string {
	text := strings.TrimSpace(c.RawText)
	i := strings.LastIndexAny(text, " \t")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[:i])
}

// Location parses the trailing "file:line" token.
func (c CallRecord) Location() (Location, error) {
	fields := strings.Fields(c.RawText)
	if len(fields) == 0 {
		return Location{}, fmt.Errorf("%w: empty call %q", ErrMalformedLocation, c.RawText)
	}
	last := fields[len(fields)-1]
	i := strings.LastIndex(last, ":")
	if i <= 0 || i == len(last)-1 {
		return Location{}, fmt.Errorf("%w: %q", ErrMalformedLocation, last)
	}
	line, err := strconv.Atoi(last[i+1:])
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrMalformedLocation, last, err)
	}
	return Location{File: last[:i], Line: line}, nil
}

// Trace is one execution path closed by a trace end marker.
type Trace []CallRecord

// Key returns a canonical string form of the trace usable as a map key.
// Records are length-prefixed so no two different traces share a key.
func (t Trace) Key() string {
	var b strings.Builder
	for _, c := range t {
		b.WriteString(strconv.Itoa(len(c.RawText)))
		b.WriteByte(':')
		b.WriteString(c.RawText)
	}
	return b.String()
}

// TableSet is a set of inferred table names.
type TableSet map[string]struct{}

// NewTableSet builds a set from names.
func NewTableSet(names ...string) TableSet {
	s := make(TableSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s TableSet) Add(name string) { s[name] = struct{}{} }

func (s TableSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every name of o to s.
func (s TableSet) Union(o TableSet) {
	for n := range o {
		s[n] = struct{}{}
	}
}

// Sorted returns the names in lexical order.
func (s TableSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// GroupedResult maps each table to the traces touching it, every trace
// reduced to the calls referencing that table.
type GroupedResult map[string][]Trace
