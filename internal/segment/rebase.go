package segment

import (
	"fmt"

	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/timecode"
)

// Rebase shifts cues so origin becomes 00:00:00.000. Order, index and text are kept.
// A cue that precedes origin fails with faults.ErrNegativeTime.
func Rebase(cues []subtitle.Entry, origin timecode.TimeCode) ([]subtitle.Entry, error) {
	out := make([]subtitle.Entry, len(cues))
	shift := origin.Duration()
	for i, cue := range cues {
		start, err := cue.StartTime.Subtract(shift)
		if err != nil {
			return nil, fmt.Errorf("rebase cue %d: %w", cue.Index, err)
		}
		end, err := cue.EndTime.Subtract(shift)
		if err != nil {
			return nil, fmt.Errorf("rebase cue %d: %w", cue.Index, err)
		}
		cue.StartTime = start
		cue.EndTime = end
		out[i] = cue
	}
	return out, nil
}

// Rebased returns the segment's cues relative to its own start.
func (s Segment) Rebased() ([]subtitle.Entry, error) {
	return Rebase(s.Cues, s.Origin)
}
