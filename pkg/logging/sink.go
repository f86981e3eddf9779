package logging

import (
	"fmt"
	"sync"
)

// Sink receives diagnostics from components that recover from failures
// locally (per-flag check failures, hydration errors, write-through errors).
// Components take a Sink instead of calling the package functions directly so
// tests can observe what was reported.
type Sink interface {
	Warn(subsystem string, err error, messageFmt string, args ...interface{})
	Debug(subsystem string, messageFmt string, args ...interface{})
}

type defaultSink struct{}

// Default returns a Sink that forwards to the package-level logger.
func Default() Sink {
	return defaultSink{}
}

func (defaultSink) Warn(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, err, messageFmt, args...)
}

func (defaultSink) Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Entry is one record captured by a RecordingSink.
type Entry struct {
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

// RecordingSink keeps every reported entry in memory.
type RecordingSink struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *RecordingSink) Warn(subsystem string, err error, messageFmt string, args ...interface{}) {
	r.add(Entry{Level: LevelWarn, Subsystem: subsystem, Message: sprintf(messageFmt, args...), Err: err})
}

func (r *RecordingSink) Debug(subsystem string, messageFmt string, args ...interface{}) {
	r.add(Entry{Level: LevelDebug, Subsystem: subsystem, Message: sprintf(messageFmt, args...)})
}

func (r *RecordingSink) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded entries.
func (r *RecordingSink) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Warnings returns only the warn-level entries.
func (r *RecordingSink) Warnings() []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == LevelWarn {
			out = append(out, e)
		}
	}
	return out
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
