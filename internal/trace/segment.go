// Package trace splits an XDebug trace log into execution traces made of
// SQL preparation calls.
package trace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
)

const (
	// DefaultEndMarker closes a trace.
	DefaultEndMarker = "TRACE END"
	// CallBoundary separates the call context from the call text.
	CallBoundary = "->"
)

// DefaultIndicators mark a line as an SQL preparation call.
var DefaultIndicators = []string{"->prepare"}

// ErrMalformedCall is returned for a call line without enough "->" segments.
var ErrMalformedCall = errors.New("malformed call line")

// Segmenter folds log lines into traces.
type Segmenter struct {
	EndMarker  string
	Indicators []string
}

// NewSegmenter returns a Segmenter using the default marker and indicators.
func NewSegmenter() *Segmenter {
	return &Segmenter{EndMarker: DefaultEndMarker, Indicators: DefaultIndicators}
}

// Result holds the closed traces and the number of calls that were seen
// after the last end marker and therefore dropped.
type Result struct {
	Traces  []model.Trace
	Pending int
}

// Segment splits lines into traces. A trace is only emitted when an end
// marker closes it; calls after the last marker are counted in Pending.
func (s *Segmenter) Segment(lines []string) (Result, error) {
	var res Result
	var acc model.Trace
	for i, l := range lines {
		if strings.Contains(l, s.EndMarker) {
			res.Traces = append(res.Traces, acc)
			acc = nil
			continue
		}
		if !s.isCall(l) {
			continue
		}
		parts := strings.Split(l, CallBoundary)
		if len(parts) < 3 {
			return Result{}, fmt.Errorf("%w: line %d: %q", ErrMalformedCall, i+1, l)
		}
		acc = append(acc, model.CallRecord{RawText: parts[2]})
	}
	res.Pending = len(acc)
	return res, nil
}

func (s *Segmenter) isCall(line string) bool {
	for _, ind := range s.Indicators {
		if ind != "" && strings.Contains(line, ind) {
			return true
		}
	}
	return false
}
