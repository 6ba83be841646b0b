package manifest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/kaatna/internal/segment"
	"github.com/mgpai22/kaatna/internal/timecode"
)

var (
	ErrFinalized  = errors.New("manifest already finalized")
	ErrOutOfOrder = errors.New("segment recorded out of order")
	ErrNotFinal   = errors.New("manifest not finalized")
)

// Entry records the artifacts written for one segment.
type Entry struct {
	SegmentIndex    int               `json:"segmentIndex" toml:"segment_index"`
	Media           string            `json:"media" toml:"media"`
	Subtitles       string            `json:"subtitles,omitempty" toml:"subtitles,omitempty"`
	Start           timecode.TimeCode `json:"start" toml:"start"`
	End             timecode.TimeCode `json:"end" toml:"end"`
	DurationSeconds float64           `json:"durationSeconds" toml:"duration_seconds"`
}

// Manifest is the ordered record of one segmentation run.
type Manifest struct {
	RunID          string
	Source         string
	SubtitleSource string
	TargetSeconds  float64
	Language       string
	CreatedAt      time.Time

	mu        sync.Mutex
	entries   []Entry
	finalized bool
}

func New(source, subtitleSource string, target time.Duration) *Manifest {
	return &Manifest{
		RunID:          uuid.NewString(),
		Source:         source,
		SubtitleSource: subtitleSource,
		TargetSeconds:  target.Seconds(),
		CreatedAt:      time.Now().UTC(),
	}
}

// Record appends the entry for seg. Segments must arrive in emission order
// with no gaps; subtitles may be empty when the run has no cue track.
func (m *Manifest) Record(seg segment.Segment, media, subtitles string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return ErrFinalized
	}
	if want := len(m.entries) + 1; seg.Index != want {
		return fmt.Errorf("%w: got segment %d, want %d", ErrOutOfOrder, seg.Index, want)
	}

	m.entries = append(m.entries, Entry{
		SegmentIndex:    seg.Index,
		Media:           media,
		Subtitles:       subtitles,
		Start:           seg.Start,
		End:             seg.End,
		DurationSeconds: seg.Duration().Seconds(),
	})
	return nil
}

// Finalize closes the manifest and returns its entries in emission order.
func (m *Manifest) Finalize() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finalized = true
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// serialised form shared by the JSON and TOML writers
type document struct {
	RunID          string    `json:"runId" toml:"run_id"`
	Source         string    `json:"source" toml:"source"`
	SubtitleSource string    `json:"subtitleSource,omitempty" toml:"subtitle_source,omitempty"`
	TargetSeconds  float64   `json:"targetSeconds" toml:"target_seconds"`
	Language       string    `json:"language,omitempty" toml:"language,omitempty"`
	CreatedAt      time.Time `json:"createdAt" toml:"created_at"`
	Segments       []Entry   `json:"segments" toml:"segments"`
}

func (m *Manifest) document() (document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.finalized {
		return document{}, ErrNotFinal
	}
	segments := make([]Entry, len(m.entries))
	copy(segments, m.entries)
	return document{
		RunID:          m.RunID,
		Source:         m.Source,
		SubtitleSource: m.SubtitleSource,
		TargetSeconds:  m.TargetSeconds,
		Language:       m.Language,
		CreatedAt:      m.CreatedAt,
		Segments:       segments,
	}, nil
}
