package logging

import (
	"time"

	"github.com/eunmann/insertsize/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ScanProgress counts records of a sequential scan and emits a debug
// scan_progress event every `every` records. It is not safe for concurrent use.
type ScanProgress struct {
	log       zerolog.Logger
	phase     string
	every     uint64
	records   uint64
	startTime time.Time
}

// NewScanProgress creates a progress counter. every == 0 disables events.
func NewScanProgress(log zerolog.Logger, phase string, every uint64) *ScanProgress {
	return &ScanProgress{
		log:       log,
		phase:     phase,
		every:     every,
		startTime: time.Now(),
	}
}

// Tick records one record.
func (p *ScanProgress) Tick() {
	p.records++
	if p.every > 0 && p.records%p.every == 0 {
		p.report()
	}
}

// Records returns how many records have been counted.
func (p *ScanProgress) Records() uint64 {
	return p.records
}

// Elapsed returns time since the scan started.
func (p *ScanProgress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (p *ScanProgress) report() {
	elapsed := p.Elapsed()
	e := p.log.Debug().
		Str("event", "scan_progress").
		Str("phase", p.phase).
		Uint64("records_read", p.records).
		Int64("elapsed_ms", elapsed.Milliseconds())
	if elapsed > 0 {
		e = e.Float64("records_per_sec", float64(p.records)/elapsed.Seconds())
	}
	if IsPrettyMode() {
		e = e.Str("records_read_h", humanfmt.CountUint64(p.records)).
			Str("rate_h", humanfmt.Rate(int64(p.records), elapsed))
	}
	e.Msg("scan progress")
}

// CompletionEvent helps build consistent completion log events.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  []field
}

type field struct {
	key string
	val interface{}
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
	}
}

func (ce *CompletionEvent) add(key string, val interface{}) *CompletionEvent {
	ce.fields = append(ce.fields, field{key, val})
	return ce
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	return ce.add(key, val)
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	return ce.add(key, val)
}

// Uint64 adds a uint64 field.
func (ce *CompletionEvent) Uint64(key string, val uint64) *CompletionEvent {
	return ce.add(key, val)
}

// Bool adds a bool field.
func (ce *CompletionEvent) Bool(key string, val bool) *CompletionEvent {
	return ce.add(key, val)
}

// Float64 adds a float64 field.
func (ce *CompletionEvent) Float64(key string, val float64) *CompletionEvent {
	return ce.add(key, val)
}

// Count adds count with optional human-readable companion.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.add(key, n)
	if IsPrettyMode() {
		ce.add(key+"_h", humanfmt.Count(n))
	}
	return ce
}

// Rate adds <unit>_per_sec computed over the event's elapsed time.
func (ce *CompletionEvent) Rate(unit string, n int64) *CompletionEvent {
	if ce.elapsed <= 0 {
		return ce
	}
	ce.add(unit+"_per_sec", float64(n)/ce.elapsed.Seconds())
	if IsPrettyMode() {
		ce.add(unit+"_rate_h", humanfmt.Rate(n, ce.elapsed))
	}
	return ce
}

// Log emits the completion event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the completion event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for _, f := range ce.fields {
		e = e.Interface(f.key, f.val)
	}

	e.Msg(msg)
}

// PhaseComplete logs a phase completion event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// FileCreated logs a file creation completion event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}
