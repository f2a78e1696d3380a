package cmd

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/report"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/table"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/trace"
)

// Options holds CLI options after parsing flags and env defaults.
type Options struct {
	LogFile       string
	GroupsCSV     string
	Region        string
	Profile       string
	FilterPattern string
	MessagePath   string
	StartRFC3339  string
	EndRFC3339    string
	Concurrency   int
	KeywordsCSV   string
	IndicatorsCSV string
	EndMarker     string
	Color         string
	Stable        bool
	Verbose       bool
}

// Validate checks relationships and required flags.
// Returns an error message and exit code; if no log source is given,
// it returns ("", 2) and the caller should invoke usage().
func (o *Options) Validate() (string, int) {
	if o.LogFile == "" && o.GroupsCSV == "" {
		// Caller prints usage() which exits(2)
		return "", 2
	}
	if o.LogFile != "" && o.GroupsCSV != "" {
		return "error: -f and --groups are mutually exclusive", 2
	}
	if CountFlagOccurrences("-f")+CountFlagOccurrences("--f") > 1 {
		return "error: -f specified multiple times", 2
	}
	if !report.ColorMode(o.Color).Valid() {
		return "error: --color must be one of auto, always, never", 2
	}
	if o.Concurrency < 1 {
		return "error: --concurrency must be at least 1", 2
	}
	if o.EndMarker == "" {
		return "error: --end-marker must not be empty", 2
	}
	if len(o.Keywords()) == 0 {
		return "error: --keywords must list at least one keyword", 2
	}
	if len(o.Indicators()) == 0 {
		return "error: --indicators must list at least one indicator", 2
	}
	return "", 0
}

// Keywords returns the table indicator keywords in check order.
func (o *Options) Keywords() []string { return ParseCSV(o.KeywordsCSV) }

// Indicators returns the execution indicators.
func (o *Options) Indicators() []string { return ParseCSV(o.IndicatorsCSV) }

// CollectOptions parses flags with environment-backed defaults and returns Options.
func CollectOptions() *Options {
	var logFile string
	var groupsCSV string
	var region string
	var profileFlag string
	var filterPattern string
	var messagePath string
	var startStr string
	var endStr string
	var concurrency int
	var keywordsCSV string
	var indicatorsCSV string
	var endMarker string
	var color string
	var stable bool
	var verbose bool

	color = string(report.ColorAuto)
	if v := os.Getenv("XDEBUG_RACE_COLOR"); v != "" {
		color = v
	}
	concurrency = 1
	if v, err := strconv.Atoi(os.Getenv("XDEBUG_RACE_CONCURRENCY")); err == nil {
		concurrency = v
	}

	flag.StringVar(&logFile, "f", os.Getenv("XDEBUG_TRACE_FILE"), "XDebug trace log file")
	flag.StringVar(&groupsCSV, "groups", os.Getenv("LOG_GROUP_NAMES"), "Comma-separated CloudWatch log group names holding the trace log")
	flag.StringVar(&region, "region", os.Getenv("AWS_REGION"), "AWS region (optional; falls back to AWS defaults)")
	flag.StringVar(&profileFlag, "profile", "", "AWS shared config profile (or set AWS_PROFILE)")
	flag.StringVar(&filterPattern, "filter-pattern", "", "CloudWatch Logs filter pattern (optional)")
	flag.StringVar(&messagePath, "message-path", "", "JMESPath selecting the trace line from JSON log messages")
	flag.StringVar(&startStr, "start", "", "Start time RFC3339 (e.g., 2025-08-30T15:04:05Z)")
	flag.StringVar(&endStr, "end", "", "End time RFC3339 (e.g., 2025-08-31T15:04:05Z)")
	flag.IntVar(&concurrency, "concurrency", concurrency, "Number of log groups fetched concurrently")
	flag.StringVar(&keywordsCSV, "keywords", strings.Join(table.DefaultKeywords, ","), "Comma-separated table indicator keywords, checked in order")
	flag.StringVar(&indicatorsCSV, "indicators", strings.Join(trace.DefaultIndicators, ","), "Comma-separated substrings marking an SQL preparation call")
	flag.StringVar(&endMarker, "end-marker", trace.DefaultEndMarker, "Marker closing a trace")
	flag.StringVar(&color, "color", color, "Colorize output: auto, always or never")
	flag.BoolVar(&stable, "stable", false, "Keep first occurrence order when removing duplicate paths")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	return &Options{
		LogFile:       logFile,
		GroupsCSV:     groupsCSV,
		Region:        region,
		Profile:       profileFlag,
		FilterPattern: filterPattern,
		MessagePath:   messagePath,
		StartRFC3339:  startStr,
		EndRFC3339:    endStr,
		Concurrency:   concurrency,
		KeywordsCSV:   keywordsCSV,
		IndicatorsCSV: indicatorsCSV,
		EndMarker:     endMarker,
		Color:         color,
		Stable:        stable,
		Verbose:       verbose,
	}
}

// ParseCSV turns a comma-separated string into slice, trimming empties.
func ParseCSV(csv string) []string {
	if csv == "" {
		return nil
	}
	var items []string
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			items = append(items, s)
		}
	}
	return items
}

// ResolveProfile returns the profile from flag or AWS_PROFILE env, or empty.
func ResolveProfile(flagProfile string) string {
	if flagProfile != "" {
		return flagProfile
	}
	return os.Getenv("AWS_PROFILE")
}

// ResolveTimeWindow computes the [start,end] from optional RFC3339 strings.
// Rules:
// - both empty: last 24h ending at now
// - only start: end = now
// - only end: start = end - 24h
// - both set: validate start <= end
func ResolveTimeWindow(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	if startStr == "" && endStr == "" {
		return now.Add(-24 * time.Hour), now, nil
	}
	var start time.Time
	var end time.Time
	var err error
	if startStr != "" {
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if startStr != "" && endStr == "" {
		end = now
	} else if startStr == "" && endStr != "" {
		start = end.Add(-24 * time.Hour)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrStartAfterEnd
	}
	return start, end, nil
}

// ErrStartAfterEnd represents an invalid time window where start > end.
var ErrStartAfterEnd = &timeRangeError{"start is after end"}

type timeRangeError struct{ s string }

func (e *timeRangeError) Error() string { return e.s }

// CountFlagOccurrences counts how many times a flag (e.g., "-f") appears
// considering both "-flag value" and "-flag=value" forms.
func CountFlagOccurrences(flagName string) int {
	count := 0
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if a == flagName {
			count++
			// Skip value if present and not another flag
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		if strings.HasPrefix(a, flagName+"=") {
			count++
			continue
		}
	}
	return count
}
