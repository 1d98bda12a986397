package logger

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder is a slog.Handler that keeps every record in memory. Install it with
// SetLogger(slog.New(rec)) to assert on what the engine logged.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

var _ slog.Handler = &Recorder{}

// NewRecorder returns an empty Recorder that accepts every level.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	r.records = append(r.records, rec.Clone())
	r.mu.Unlock()
	return nil
}

// WithAttrs and WithGroup share the record list; derived attributes are not kept.
func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *Recorder) WithGroup(string) slog.Handler      { return r }

// Records returns a copy of the records seen so far.
func (r *Recorder) Records() []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]slog.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Count returns how many records with the given level and message were seen.
//
// Parameters:
//   - level: the record level
//   - msg: the exact message
//
// Returns:
//   - int: the number of matching records
func (r *Recorder) Count(level slog.Level, msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level && rec.Message == msg {
			n++
		}
	}
	return n
}

// Reset drops every recorded entry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}
