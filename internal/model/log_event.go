package model

import "time"

// LogEvent is a single raw line fetched from a remote log source.
type LogEvent struct {
	Timestamp time.Time
	LogGroup  string
	LogStream string
	Message   string
}
