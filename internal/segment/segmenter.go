package segment

import (
	"time"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/timecode"
)

type State int

const (
	Accumulating State = iota
	Emitting
	Done
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Emitting:
		return "emitting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Segment is one contiguous slice of the source timeline.
type Segment struct {
	Index  int // 1-based emission order
	Start  timecode.TimeCode
	End    timecode.TimeCode
	Cues   []subtitle.Entry // absolute times, empty in fixed mode
	Origin timecode.TimeCode
}

func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// sum of the spans of the segment's cues
func (s Segment) CueSpan() time.Duration {
	var total time.Duration
	for _, c := range s.Cues {
		total += c.EndTime.Sub(c.StartTime)
	}
	return total
}

type Option func(*Segmenter)

// WithTotal lets the tail reach the end of the media when it outlasts the last cue.
// A media tail after the final cut becomes a segment without cues.
func WithTotal(total timecode.TimeCode) Option {
	return func(s *Segmenter) {
		s.total = total
		s.extendTail = true
	}
}

// Segmenter is the cue-driven state machine. It is not safe for concurrent use;
// independent runs use independent Segmenters.
type Segmenter struct {
	target       time.Duration
	state        State
	accumulated  time.Duration
	pending      []subtitle.Entry
	segmentStart timecode.TimeCode
	pendingEnd   timecode.TimeCode
	endCue       int // index of the pending cue reaching pendingEnd
	cutCue       int // cue that set segmentStart
	lastStart    timecode.TimeCode
	index        int
	last         *Segment

	total      timecode.TimeCode
	extendTail bool
}

func New(target time.Duration, opts ...Option) (*Segmenter, error) {
	if target <= 0 {
		return nil, faults.Errorf(
			faults.ErrConfig,
			"new segmenter",
			"target duration must be positive, got %s",
			target,
		)
	}
	s := &Segmenter{target: target, state: Accumulating}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Segmenter) State() State { return s.state }

// Feed adds the next cue. It returns a segment when the cue closes one, nil otherwise.
func (s *Segmenter) Feed(cue subtitle.Entry) (*Segment, error) {
	if s.state == Done {
		return nil, faults.Errorf(faults.ErrConfig, "feed cue", "segmenter already flushed")
	}
	if cue.EndTime.Before(cue.StartTime) {
		return nil, faults.Errorf(
			faults.ErrNegativeTime,
			"feed cue",
			"cue %d ends at %s before it starts at %s",
			cue.Index, cue.EndTime, cue.StartTime,
		)
	}
	if cue.StartTime.Before(s.lastStart) {
		return nil, faults.Errorf(
			faults.ErrNegativeTime,
			"feed cue",
			"cue %d starts at %s before the previous cue at %s",
			cue.Index, cue.StartTime, s.lastStart,
		)
	}
	if cue.StartTime.Before(s.segmentStart) {
		return nil, faults.Errorf(
			faults.ErrNegativeTime,
			"feed cue",
			"cue %d starts at %s but cue %d runs to the cut at %s; cues must not overlap a segment boundary",
			cue.Index, cue.StartTime, s.cutCue, s.segmentStart,
		)
	}
	s.lastStart = cue.StartTime

	s.pending = append(s.pending, cue)
	s.accumulated += cue.EndTime.Sub(cue.StartTime)
	if !cue.EndTime.Before(s.pendingEnd) {
		s.pendingEnd = cue.EndTime
		s.endCue = cue.Index
	}

	if s.accumulated < s.target {
		return nil, nil
	}

	s.state = Emitting
	seg := s.emit(s.pendingEnd)
	s.state = Accumulating
	return seg, nil
}

// Flush emits the tail segment, if any, and moves to Done. Pending cues with no
// span that sit exactly on the last cut fold into the previous segment, which
// is updated in place, so no empty range is ever emitted.
func (s *Segmenter) Flush() (*Segment, error) {
	if s.state == Done {
		return nil, faults.Errorf(faults.ErrConfig, "flush", "segmenter already flushed")
	}
	defer func() { s.state = Done }()

	end := s.pendingEnd
	if s.extendTail && s.total.After(end) {
		end = s.total
	}

	switch {
	case len(s.pending) > 0 && !end.After(s.segmentStart):
		if s.last != nil {
			s.last.Cues = append(s.last.Cues, s.pending...)
		}
		s.pending = nil
		return nil, nil
	case len(s.pending) > 0:
		s.state = Emitting
		return s.emit(end), nil
	case s.extendTail && s.index > 0 && end.After(s.segmentStart):
		s.state = Emitting
		return s.emit(end), nil
	default:
		return nil, nil
	}
}

func (s *Segmenter) emit(end timecode.TimeCode) *Segment {
	s.index++
	seg := &Segment{
		Index:  s.index,
		Start:  s.segmentStart,
		End:    end,
		Cues:   s.pending,
		Origin: s.segmentStart,
	}
	s.pending = nil
	s.accumulated = 0
	s.segmentStart = end
	s.pendingEnd = end
	s.cutCue = s.endCue
	s.last = seg
	return seg
}

// Split runs a whole cue stream through a fresh Segmenter.
func Split(stream subtitle.CueStream, target time.Duration, opts ...Option) ([]Segment, error) {
	s, err := New(target, opts...)
	if err != nil {
		return nil, err
	}

	// pointers, since Flush may still extend the last emitted segment
	var emitted []*Segment
	for cue := range stream {
		seg, err := s.Feed(cue)
		if err != nil {
			return nil, err
		}
		if seg != nil {
			emitted = append(emitted, seg)
		}
	}

	tail, err := s.Flush()
	if err != nil {
		return nil, err
	}
	if tail != nil {
		emitted = append(emitted, tail)
	}

	segments := make([]Segment, 0, len(emitted))
	for _, seg := range emitted {
		segments = append(segments, *seg)
	}
	return segments, nil
}

// Fixed cuts [0, total) into windows of target; the last window ends at total.
// A zero total yields no segments.
func Fixed(total timecode.TimeCode, target time.Duration) ([]Segment, error) {
	if target <= 0 {
		return nil, faults.Errorf(
			faults.ErrConfig,
			"fixed segments",
			"target duration must be positive, got %s",
			target,
		)
	}

	length := total.Duration()
	if length == 0 {
		return nil, nil
	}

	count := int((length + target - 1) / target)
	segments := make([]Segment, 0, count)
	for k := 0; k < count; k++ {
		startDur := time.Duration(k) * target
		endDur := startDur + target
		if endDur > length {
			endDur = length
		}
		start, err := timecode.FromDuration(startDur)
		if err != nil {
			return nil, err
		}
		end, err := timecode.FromDuration(endDur)
		if err != nil {
			return nil, err
		}
		segments = append(segments, Segment{
			Index:  k + 1,
			Start:  start,
			End:    end,
			Origin: start,
		})
	}
	return segments, nil
}
