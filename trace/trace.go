// Package trace records what a resolution looked at, so terminal failures
// can carry enough context for manual recovery.
package trace

import "fmt"

type Kind string

const (
	KindSource      Kind = "source"
	KindWindowHit   Kind = "window_hit"
	KindCandidate   Kind = "candidate"
	KindTier        Kind = "tier"
	KindRow         Kind = "row"
	KindDocumentErr Kind = "document_error"
)

type Event struct {
	Kind   Kind
	Label  string
	Detail string
}

type Summary struct {
	Sources        int
	WindowHits     int
	Candidates     int
	Tiers          int
	RowsScanned    int
	DocumentErrors int
}

func (s Summary) LogAttrs() []any {
	return []any{
		"sources", s.Sources,
		"windowHits", s.WindowHits,
		"candidates", s.Candidates,
		"tiers", s.Tiers,
		"rowsScanned", s.RowsScanned,
		"documentErrors", s.DocumentErrors,
	}
}

// Recorder collects resolution events. The engine runs one resolution at a
// time, fully synchronously, so events are applied inline. A nil Recorder
// discards everything.
type Recorder struct {
	events  []Event
	summary Summary
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Record(evt Event) {
	if r == nil {
		return
	}
	r.events = append(r.events, evt)
	switch evt.Kind {
	case KindSource:
		r.summary.Sources++
	case KindWindowHit:
		r.summary.WindowHits++
	case KindCandidate:
		r.summary.Candidates++
	case KindTier:
		r.summary.Tiers++
	case KindRow:
		r.summary.RowsScanned++
	case KindDocumentErr:
		r.summary.DocumentErrors++
	}
}

func (r *Recorder) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	return r.summary
}

func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// RowTrace returns every scanned document row as one line per row, in scan
// order.
func (r *Recorder) RowTrace() []string {
	if r == nil {
		return nil
	}
	var lines []string
	for _, evt := range r.events {
		if evt.Kind != KindRow {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", evt.Label, evt.Detail))
	}
	return lines
}
