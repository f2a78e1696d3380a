package source

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jmespath/go-jmespath"
)

// MessageSelector picks the trace line out of structured log messages.
type MessageSelector struct {
	expr *jmespath.JMESPath
}

// NewMessageSelector compiles a JMESPath expression.
func NewMessageSelector(expr string) (*MessageSelector, error) {
	c, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid message path %q: %w", expr, err)
	}
	return &MessageSelector{expr: c}, nil
}

// Select evaluates the expression against raw, decoded as JSON if possible
// and otherwise wrapped as {"message": raw}. Array results use the first
// element only. It returns ("", false, nil) when nothing non-empty is found.
func (s *MessageSelector) Select(raw string) (string, bool, error) {
	var input any
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		input = decoded
	} else {
		input = map[string]any{"message": raw}
	}

	res, err := s.expr.Search(input)
	if err != nil {
		return "", false, fmt.Errorf("jmespath search failed: %w", err)
	}
	if isEmpty(res) {
		return "", false, nil
	}
	rv := reflect.ValueOf(res)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		res = rv.Index(0).Interface()
		if isEmpty(res) {
			return "", false, nil
		}
	}
	switch v := res.(type) {
	case string:
		return v, true, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", false, fmt.Errorf("marshal result failed: %w", err)
		}
		if string(b) == "null" || string(b) == "{}" {
			return "", false, nil
		}
		return string(b), true, nil
	}
}

// SelectLines maps every line through Select. Lines without a result are
// kept unchanged so plain marker lines still reach the segmenter.
func (s *MessageSelector) SelectLines(lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		v, ok, err := s.Select(l)
		if err != nil {
			return nil, err
		}
		if !ok {
			v = l
		}
		out = append(out, v)
	}
	return out, nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
