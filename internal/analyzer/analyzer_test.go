package analyzer

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/table"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/trace"
)

func call(sql, loc string) string {
	return `    0.0100     500000     -> PDO->prepare("` + sql + `") ` + loc
}

func TestAnalyzeTwoTracesSameTable(t *testing.T) {
	lines := []string{
		"TRACE START [10:00:00]",
		call("UPDATE accounts SET balance = 0", "/app/Transfer.php:12"),
		"TRACE END   [10:00:01]",
		"TRACE START [10:00:02]",
		call("UPDATE accounts SET balance = 1", "/app/Refund.php:30"),
		"TRACE END   [10:00:03]",
	}

	got, err := New().Analyze(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, got.Tables)
	assert.Equal(t, 2, got.Traces)
	assert.Len(t, got.Paths["accounts"], 2)
}

func TestAnalyzeCollapsesIdenticalTraces(t *testing.T) {
	block := []string{
		"TRACE START",
		call("SELECT * FROM users", "/app/User.php:3"),
		call("UPDATE users SET seen = 1", "/app/User.php:9"),
		"TRACE END",
	}
	lines := append(append([]string{}, block...), block...)

	got, err := New().Analyze(lines)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Traces)
	require.Len(t, got.Paths["users"], 1)
	assert.Len(t, got.Paths["users"][0], 2)
}

func TestAnalyzeDedupesReducedTraces(t *testing.T) {
	lines := []string{
		call("SELECT * FROM users", "/a.php:1"),
		call("INSERT INTO audit VALUES (1)", "/a.php:2"),
		"TRACE END",
		call("SELECT * FROM users", "/a.php:1"),
		call("INSERT INTO audit VALUES (2)", "/a.php:5"),
		"TRACE END",
	}

	got, err := New(WithStableOrder(true)).Analyze(lines)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Traces)
	assert.Equal(t, []string{"audit", "users"}, got.Tables)
	assert.Len(t, got.Paths["users"], 1)
	assert.Len(t, got.Paths["audit"], 2)
}

func TestAnalyzeNoTables(t *testing.T) {
	lines := []string{call("SHOW STATUS", "/a.php:1"), "TRACE END"}

	got, err := New().Analyze(lines)
	require.NoError(t, err)
	assert.Empty(t, got.Tables)
	assert.Empty(t, got.Paths)
	assert.Equal(t, 1, got.Traces)
}

func TestAnalyzeLogsDroppedTrailingTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	lines := []string{
		call("UPDATE accounts SET a = 1", "/a.php:1"), "TRACE END",
		call("UPDATE orders SET a = 1", "/b.php:1"),
	}

	got, err := New(WithLogger(logger)).Analyze(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, got.Tables)
	assert.Contains(t, buf.String(), "dropping unterminated trailing trace")
	assert.Contains(t, buf.String(), "calls=1")
}

func TestAnalyzeMalformedCall(t *testing.T) {
	_, err := New().Analyze([]string{"$pdo->prepare('x')", "TRACE END"})
	require.ErrorIs(t, err, trace.ErrMalformedCall)
}

func TestAnalyzeCustomRules(t *testing.T) {
	a := New(
		WithSegmenter(&trace.Segmenter{EndMarker: "END", Indicators: []string{"->query"}}),
		WithExtractor(&table.Extractor{Keywords: []string{"from"}, Delimiters: table.DefaultDelimiters}),
	)
	got, err := a.Analyze([]string{`x -> db->query("select * from items") i.php:4`, "END"})
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, got.Tables)
	assert.Equal(t, []model.Trace{{{RawText: `query("select * from items") i.php:4`}}}, got.Paths["items"])
}

func TestAnalyzeStreamsKeepsTracesApart(t *testing.T) {
	streams := [][]string{
		{call("UPDATE accounts SET a = 1", "/web1.php:3")},
		{call("UPDATE accounts SET a = 2", "/web2.php:8"), "TRACE END"},
	}

	got, err := New().AnalyzeStreams(streams)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Traces)
	require.Len(t, got.Paths["accounts"], 1)
	assert.Equal(t, model.Trace{{RawText: `prepare("UPDATE accounts SET a = 2") /web2.php:8`}}, got.Paths["accounts"][0])
}

func TestAnalyzeStreamsMalformedNamesStream(t *testing.T) {
	_, err := New().AnalyzeStreams([][]string{{"TRACE END"}, {"$pdo->prepare('x')"}})
	require.ErrorIs(t, err, trace.ErrMalformedCall)
	assert.Contains(t, err.Error(), "stream 2")
}
