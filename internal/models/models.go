package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoProject is the grouping label used for reports without a project.
const NoProject = "sem-projeto"

// Report is one recorded work session as stored in the "relatorios" collection.
// Field order matters: it is the order of the exported JSON.
type Report struct {
	FileDurations      map[string]int64 `json:"fileDurations"`      // milliseconds per file path
	ActivityLog        []LogEntry       `json:"activityLog"`        // chronological within the report
	InactivityDuration int64            `json:"inactivityDuration"` // milliseconds
	Timestamp          string           `json:"timestamp"`
	UserID             string           `json:"userId"`
	Projeto            string           `json:"projeto,omitempty"`
}

// LogEntry is a single discrete action recorded during a session.
type LogEntry struct {
	Time     string `json:"time"`
	Action   string `json:"action"`
	File     string `json:"file"`
	Duration string `json:"duration,omitempty"` // pre-formatted, shown verbatim
}

// Project returns the project label used for grouping. It never mutates r.
func (r Report) Project() string {
	if r.Projeto == "" {
		return NoProject
	}
	return r.Projeto
}

// Time parses the report timestamp in loc.
func (r Report) Time(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(r.Timestamp, loc)
}

// Validate checks the invariants a report must hold before the dashboard uses it.
func (r Report) Validate() error {
	var errs []error
	if r.UserID == "" {
		errs = append(errs, errors.New("userId is empty"))
	}
	if _, err := ParseTimestamp(r.Timestamp, time.UTC); err != nil {
		errs = append(errs, fmt.Errorf("timestamp: %w", err))
	}
	if r.InactivityDuration < 0 {
		errs = append(errs, fmt.Errorf("inactivityDuration is negative: %d", r.InactivityDuration))
	}
	for path, ms := range r.FileDurations {
		if ms < 0 {
			errs = append(errs, fmt.Errorf("fileDurations[%q] is negative: %d", path, ms))
		}
	}
	for i, e := range r.ActivityLog {
		if _, err := ParseTimestamp(e.Time, time.UTC); err != nil {
			errs = append(errs, fmt.Errorf("activityLog[%d].time: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// FileName returns the last segment of the entry's file path.
func (e LogEntry) FileName() string {
	return BaseName(e.File)
}

// NormalizedAction is the action label as compared against filters.
func (e LogEntry) NormalizedAction() string {
	return strings.ToLower(strings.TrimSpace(e.Action))
}

// BaseName returns the final segment of a path split on either / or \.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone offset are
// interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
