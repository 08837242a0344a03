package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoSources means not even the default inbox fallback yielded a
	// message source. Callers escalate; they must not crash.
	ErrNoSources = errors.New("no message sources could be enumerated")

	// ErrUserCancelled means the human-selection collaborator returned no
	// choice.
	ErrUserCancelled = errors.New("no message was selected")

	// ErrUnsupportedMessage means the manually selected message has neither
	// the notification phrase nor a matching attachment.
	ErrUnsupportedMessage = errors.New("selected message cannot be processed automatically")
)

// TimeParseError reports an input timestamp that could not be normalized.
type TimeParseError struct {
	Value any
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("cannot interpret %v (%T) as a date/time", e.Value, e.Value)
}

// NoCandidatesError reports an empty collection window. Nearest carries the
// closest message found by the diagnostic scan, if any; it is for operator
// reporting only and must never be committed as the selected candidate.
type NoCandidatesError struct {
	Anchor          time.Time
	HalfWidth       time.Duration
	Nearest         *Envelope
	NearestDistance time.Duration
}

func (e *NoCandidatesError) Error() string {
	if e.Nearest == nil {
		return fmt.Sprintf("no messages within %s of %s", e.HalfWidth, e.Anchor.Format(time.DateTime))
	}
	return fmt.Sprintf("no messages within %s of %s; closest is %q received %s (%s away)",
		e.HalfWidth, e.Anchor.Format(time.DateTime),
		e.Nearest.Subject, e.Nearest.ReceivedAt.Format(time.DateTime), e.NearestDistance)
}

// TierExhaustedError reports that every extraction tier failed for every
// ranked candidate. RowTrace holds every document row scanned on the way,
// so an operator can see why nothing matched.
type TierExhaustedError struct {
	Anchor     time.Time
	Candidates int
	RowTrace   []string
	Err        error
}

func (e *TierExhaustedError) Error() string {
	return fmt.Sprintf("all extraction tiers failed for %d candidate(s) around %s: %v",
		e.Candidates, e.Anchor.Format(time.DateTime), e.Err)
}

func (e *TierExhaustedError) Unwrap() error { return e.Err }

// DocumentError wraps a fetch or open failure for a tabular document. It is
// not terminal: the pipeline logs it and falls through to the next candidate.
type DocumentError struct {
	Op  string // "fetch" or "open"
	Ref string // URL or file path
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
