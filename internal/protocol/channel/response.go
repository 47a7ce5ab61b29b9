package channel

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Timestamp is a response file modification time in Unix nanoseconds.
type Timestamp int64

// Absent is reported for missing or unreadable files and sorts below every real timestamp.
const Absent Timestamp = 0

func TimestampFromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return Absent
	}
	ns := t.UnixNano()
	if ns <= 0 {
		return Absent
	}
	return Timestamp(ns)
}

func (t Timestamp) IsAbsent() bool {
	return t <= Absent
}

func (t Timestamp) Time() time.Time {
	if t.IsAbsent() {
		return time.Time{}
	}
	return time.Unix(0, int64(t))
}

func (t Timestamp) String() string {
	if t.IsAbsent() {
		return "absent"
	}
	return t.Time().UTC().Format(time.RFC3339Nano)
}

// TimestampOf returns the mtime of path, or Absent when it cannot be observed.
func TimestampOf(path string) Timestamp {
	if strings.TrimSpace(path) == "" {
		return Absent
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Absent
	}
	return TimestampFromTime(info.ModTime())
}

// ReadText reads the full contents of path.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: path=%s: %w", ErrChannelRead, path, err)
	}
	return string(data), nil
}

// ResponseChannel is the host-authored status file. This client never writes it.
type ResponseChannel struct {
	path string
}

func NewResponseChannel(path string) (*ResponseChannel, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: response file", ErrPathRequired)
	}
	return &ResponseChannel{path: path}, nil
}

func (r *ResponseChannel) Path() string {
	return r.path
}

func (r *ResponseChannel) TimestampOf() Timestamp {
	return TimestampOf(r.path)
}

func (r *ResponseChannel) ReadText() (string, error) {
	return ReadText(r.path)
}
