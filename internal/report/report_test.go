package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/analyzer"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
)

func TestRenderPlain(t *testing.T) {
	a := &analyzer.Analysis{
		Tables: []string{"accounts"},
		Paths: model.GroupedResult{
			"accounts": {
				{
					{RawText: `prepare("SELECT * FROM accounts") /app/A.php:3`},
					{RawText: `prepare("UPDATE accounts SET x = 1") /app/A.php:9`},
				},
				nil,
			},
		},
		Traces: 2,
	}
	var buf bytes.Buffer

	require.NoError(t, New(&buf, ColorNever).Render(a))

	want := strings.Join([]string{
		"### xdebug-race-inspector v1.0 ###",
		"",
		"[*] Basic Info",
		"Table(s) Detected",
		"(1). accounts",
		"",
		"[*] Potential Path(s) detected",
		"Table(accounts):",
		"- Path[1]",
		`  - prepare("SELECT * FROM accounts") /app/A.php:3`,
		`  - prepare("UPDATE accounts SET x = 1") /app/A.php:9`,
		"",
		"- Path[2]",
		"",
		"[*] Path(s) Summary",
		"Table(accounts):",
		"- Path[1]",
		"  /app/A.php:3  ->  /app/A.php:9",
		"",
		"- Path[2]",
		"",
		"### THANK YOU FOR USING - xdebug-race-inspector v1.0 ###",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestRenderEmptyAnalysis(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, ColorNever).Render(&analyzer.Analysis{}))

	out := buf.String()
	assert.Contains(t, out, "[*] Basic Info\nTable(s) Detected\n\n")
	assert.Contains(t, out, "[*] Potential Path(s) detected\n[*] Path(s) Summary\n")
	assert.NotContains(t, out, "Path[")
}

func TestRenderMalformedLocationWritesNothing(t *testing.T) {
	a := &analyzer.Analysis{
		Tables: []string{"orders"},
		Paths:  model.GroupedResult{"orders": {{{RawText: `prepare("INSERT INTO orders")`}}}},
	}
	var buf bytes.Buffer

	err := New(&buf, ColorNever).Render(a)
	require.ErrorIs(t, err, model.ErrMalformedLocation)
	assert.Contains(t, err.Error(), "table orders")
	assert.Zero(t, buf.Len())
}

func TestRenderColorAlways(t *testing.T) {
	a := &analyzer.Analysis{
		Tables: []string{"users"},
		Paths:  model.GroupedResult{"users": {{{RawText: `prepare("SELECT * FROM users") u.php:1`}}}},
	}
	var buf bytes.Buffer

	require.NoError(t, New(&buf, ColorAlways).Render(a))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "users")
}

func TestAutoColorOffForBuffers(t *testing.T) {
	assert.False(t, useColor(&bytes.Buffer{}, ColorAuto))
	assert.True(t, useColor(&bytes.Buffer{}, ColorAlways))
}

func TestColorModeValid(t *testing.T) {
	assert.True(t, ColorAuto.Valid())
	assert.True(t, ColorMode("never").Valid())
	assert.False(t, ColorMode("sometimes").Valid())
}

func TestRenderDetailedViewJoinsSQLAndLocation(t *testing.T) {
	a := &analyzer.Analysis{
		Tables: []string{"users"},
		Paths:  model.GroupedResult{"users": {{{RawText: "prepare(\"SELECT * FROM users\")\t  /app/U.php:0007  "}}}},
	}
	var buf bytes.Buffer

	require.NoError(t, New(&buf, ColorNever).Render(a))
	assert.Contains(t, buf.String(), "- Path[1]\n  - prepare(\"SELECT * FROM users\") /app/U.php:7\n\n")
	assert.Contains(t, buf.String(), "- Path[1]\n  /app/U.php:7\n\n")
}
