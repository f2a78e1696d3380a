package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/analyzer"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/client"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/report"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/source"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/table"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/trace"

	"github.com/Nao-Mk2/xdebug-race-inspector/cmd"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: xdebug-race-inspector -f <xdebug_trace.xt> [--color auto|always|never] [--stable]")
	fmt.Fprintln(os.Stderr, "       xdebug-race-inspector --groups g1,g2 [--region us-east-1] [--profile p] [--filter-pattern p] [--message-path jmes] [--start RFC3339] [--end RFC3339]")
	fmt.Fprintln(os.Stderr, "Environment: XDEBUG_TRACE_FILE or LOG_GROUP_NAMES can provide the source; AWS credentials from default sources.")
	os.Exit(2)
}

func main() {
	// Parse flags/env and validate relationships
	opts := cmd.CollectOptions()
	if msg, code := opts.Validate(); code != 0 {
		if msg == "" {
			usage()
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(code)
	}
	logger := cmd.NewLogger(os.Stderr, opts.Verbose)

	var selector *source.MessageSelector
	if opts.MessagePath != "" {
		s, err := source.NewMessageSelector(opts.MessagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		selector = s
	}

	ctx := context.Background()
	streams, err := readStreams(ctx, opts, logger)
	if err != nil {
		logger.Error("read trace log failed", "error", err)
		os.Exit(1)
	}
	if selector != nil {
		for i, lines := range streams {
			streams[i], err = selector.SelectLines(lines)
			if err != nil {
				logger.Error("select trace lines failed", "error", err)
				os.Exit(1)
			}
		}
	}

	az := analyzer.New(
		analyzer.WithSegmenter(&trace.Segmenter{EndMarker: opts.EndMarker, Indicators: opts.Indicators()}),
		analyzer.WithExtractor(&table.Extractor{Keywords: opts.Keywords(), Delimiters: table.DefaultDelimiters}),
		analyzer.WithStableOrder(opts.Stable),
		analyzer.WithLogger(logger),
	)
	result, err := az.AnalyzeStreams(streams)
	if err != nil {
		logger.Error("analyze trace log failed", "error", err)
		os.Exit(1)
	}

	if err := report.New(os.Stdout, report.ColorMode(opts.Color)).Render(result); err != nil {
		logger.Error("render report failed", "error", err)
		os.Exit(1)
	}
}

// readStreams loads the trace log from the file, as a single stream, or
// from the CloudWatch groups, one stream per log stream.
func readStreams(ctx context.Context, opts *cmd.Options, logger *slog.Logger) ([][]string, error) {
	if opts.LogFile != "" {
		logger.Debug("reading trace log", "file", opts.LogFile)
		lines, err := source.ReadFile(opts.LogFile)
		if err != nil {
			return nil, err
		}
		return [][]string{lines}, nil
	}

	groups := cmd.ParseCSV(opts.GroupsCSV)
	if len(groups) == 0 {
		return nil, fmt.Errorf("no log groups provided (use --groups or LOG_GROUP_NAMES)")
	}
	// Resolve search window: RFC3339 flags or last 24h by default
	start, end, err := cmd.ResolveTimeWindow(opts.StartRFC3339, opts.EndRFC3339, time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid time window: %w", err)
	}
	cw, err := client.NewCloudWatchClient(ctx, opts.Region, cmd.ResolveProfile(opts.Profile))
	if err != nil {
		return nil, fmt.Errorf("create CloudWatch client: %w", err)
	}

	src := source.NewCloudWatch(cw, groups, start, end)
	src.SetWorkers(opts.Concurrency)
	logger.Debug("reading trace log from CloudWatch", "groups", groups,
		"start", start.UTC().Format(time.RFC3339), "end", end.UTC().Format(time.RFC3339))
	streams, err := src.Streams(ctx, opts.FilterPattern)
	if err != nil {
		return nil, fmt.Errorf("search log groups: %w", err)
	}
	return streams, nil
}
