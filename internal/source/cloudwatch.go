package source

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
)

// LogsClient is the subset of CloudWatch Logs API we use.
type LogsClient interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// CloudWatch reads trace lines shipped to one or more CloudWatch log groups.
type CloudWatch struct {
	client    LogsClient
	groups    []string
	startTime time.Time
	endTime   time.Time
	workers   int
}

// NewCloudWatch creates a CloudWatch source over groups for the window.
func NewCloudWatch(client LogsClient, groups []string, startTime, endTime time.Time) *CloudWatch {
	return &CloudWatch{client: client, groups: groups, startTime: startTime, endTime: endTime, workers: 1}
}

// SetWorkers bounds how many groups are fetched at once.
func (cw *CloudWatch) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	cw.workers = n
}

// Streams returns the lines of every log stream, one slice per stream in
// (group, stream) order. Each slice keeps the order CloudWatch returned the
// events in; multi-line messages are split into their lines.
func (cw *CloudWatch) Streams(ctx context.Context, filterPattern string) ([][]string, error) {
	events, err := cw.Events(ctx, filterPattern)
	if err != nil {
		return nil, err
	}
	var streams [][]string
	var cur []string
	for i, e := range events {
		if i > 0 && (e.LogGroup != events[i-1].LogGroup || e.LogStream != events[i-1].LogStream) {
			streams = append(streams, cur)
			cur = nil
		}
		msg, err := ReadLines(strings.NewReader(e.Message))
		if err != nil {
			return nil, err
		}
		cur = append(cur, msg...)
	}
	if len(events) > 0 {
		streams = append(streams, cur)
	}
	return streams, nil
}

// Events fetches the events of every group matching filterPattern, which may
// be empty to fetch everything, ordered by group, stream and timestamp.
// Events sharing a timestamp keep their API order.
func (cw *CloudWatch) Events(ctx context.Context, filterPattern string) ([]model.LogEvent, error) {
	if len(cw.groups) == 0 {
		return nil, errors.New("no log groups configured")
	}
	// Special characters are token separators in CloudWatch filter patterns
	// unless the term is quoted.
	fp := filterPattern
	if fp != "" && !(len(fp) >= 2 && fp[0] == '"' && fp[len(fp)-1] == '"') {
		fp = "\"" + fp + "\""
	}
	startMs := cw.startTime.UnixMilli()
	endMs := cw.endTime.UnixMilli()

	workers := cw.workers
	if workers > len(cw.groups) {
		workers = len(cw.groups)
	}
	groupChan := make(chan string, len(cw.groups))
	resultChan := make(chan []model.LogEvent, len(cw.groups))
	errorChan := make(chan error, len(cw.groups))

	for _, g := range cw.groups {
		groupChan <- g
	}
	close(groupChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range groupChan {
				events, err := cw.fetchGroup(ctx, group, fp, startMs, endMs)
				if err != nil {
					errorChan <- err
					return
				}
				resultChan <- events
			}
		}()
	}

	wg.Wait()
	close(resultChan)
	close(errorChan)

	if err := <-errorChan; err != nil {
		return nil, err
	}
	var all []model.LogEvent
	for events := range resultChan {
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].LogGroup != all[j].LogGroup {
			return all[i].LogGroup < all[j].LogGroup
		}
		if all[i].LogStream != all[j].LogStream {
			return all[i].LogStream < all[j].LogStream
		}
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, nil
}

// fetchGroup pages through a single log group.
func (cw *CloudWatch) fetchGroup(ctx context.Context, group, filterPattern string, startMs, endMs int64) ([]model.LogEvent, error) {
	var events []model.LogEvent
	var next *string
	for {
		in := &cloudwatchlogs.FilterLogEventsInput{
			LogGroupName: aws.String(group),
			StartTime:    aws.Int64(startMs),
			EndTime:      aws.Int64(endMs),
			NextToken:    next,
			Interleaved:  aws.Bool(true),
		}
		if filterPattern != "" {
			in.FilterPattern = aws.String(filterPattern)
		}
		out, err := cw.client.FilterLogEvents(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, e := range out.Events {
			ts := time.Unix(0, aws.ToInt64(e.Timestamp)*int64(time.Millisecond))
			events = append(events, model.LogEvent{
				Timestamp: ts,
				LogGroup:  group,
				LogStream: aws.ToString(e.LogStreamName),
				Message:   aws.ToString(e.Message),
			})
		}
		if out.NextToken == nil || (next != nil && aws.ToString(out.NextToken) == aws.ToString(next)) {
			break
		}
		next = out.NextToken
	}
	return events, nil
}
