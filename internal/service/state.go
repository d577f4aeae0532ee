package service

import (
	"fmt"

	"github.com/MimeLyc/videotools/internal/translator"
)

// Phase is the coarse position of a translation run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseParsing
	PhaseTranslating
	PhaseGeneratingContent
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseParsing:
		return "parsing"
	case PhaseTranslating:
		return "translating"
	case PhaseGeneratingContent:
		return "generating_content"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

type EventKind int

const (
	EventStart EventKind = iota
	EventParsed
	EventBatchTranslated
	EventContentGenerated
	EventFail
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventParsed:
		return "parsed"
	case EventBatchTranslated:
		return "batch_translated"
	case EventContentGenerated:
		return "content_generated"
	default:
		return "fail"
	}
}

// Event drives State.Next. Batches is read for EventParsed, Err for EventFail.
type Event struct {
	Kind    EventKind
	Batches int
	Err     error
}

// State is the run state. Batch and Batches are meaningful while translating.
type State struct {
	Phase   Phase
	Batch   int
	Batches int
	Err     error
}

// Next returns the state after e, or an error when e is not allowed in s.
func (s State) Next(e Event) (State, error) {
	if e.Kind == EventFail && !s.Phase.Terminal() {
		return State{Phase: PhaseFailed, Batch: s.Batch, Batches: s.Batches, Err: e.Err}, nil
	}

	switch {
	case s.Phase == PhaseIdle && e.Kind == EventStart:
		return State{Phase: PhaseParsing}, nil

	case s.Phase == PhaseParsing && e.Kind == EventParsed:
		if e.Batches < 1 {
			return s, fmt.Errorf("cannot translate without entries")
		}
		return State{Phase: PhaseTranslating, Batch: 0, Batches: e.Batches}, nil

	case s.Phase == PhaseTranslating && e.Kind == EventBatchTranslated:
		if s.Batch+1 < s.Batches {
			return State{Phase: PhaseTranslating, Batch: s.Batch + 1, Batches: s.Batches}, nil
		}
		return State{Phase: PhaseGeneratingContent, Batches: s.Batches}, nil

	case s.Phase == PhaseGeneratingContent && e.Kind == EventContentGenerated:
		return State{Phase: PhaseDone, Batches: s.Batches}, nil
	}

	return s, fmt.Errorf("illegal transition: %s on %s", s.Phase, e.Kind)
}

// Status is the user-facing description of s.
func (s State) Status() string {
	switch s.Phase {
	case PhaseTranslating:
		return fmt.Sprintf("batch %d of %d", s.Batch+1, s.Batches)
	case PhaseFailed:
		if s.Err != nil {
			return "failed: " + s.Err.Error()
		}
		return "failed"
	default:
		return s.Phase.String()
	}
}

// Progress is the run fraction at the start of s.
func (s State) Progress() float64 {
	switch s.Phase {
	case PhaseTranslating:
		return translator.BatchFraction(s.Batch, s.Batches)
	case PhaseGeneratingContent:
		return translator.StepSummary.Fraction()
	case PhaseDone:
		return 1
	default:
		return 0
	}
}
