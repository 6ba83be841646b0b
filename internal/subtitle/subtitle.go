package subtitle

import (
	"iter"

	"github.com/mgpai22/kaatna/internal/timecode"
)

// represents single subtitle entry (a cue)
type Entry struct {
	Index     int // 1-based position in the source file
	StartTime timecode.TimeCode
	EndTime   timecode.TimeCode
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// CueStream yields cues in file order.
type CueStream = iter.Seq[Entry]

// Cues streams the track's entries in order.
func (s *Subtitle) Cues() CueStream {
	return Stream(s.Entries)
}

// Stream adapts a slice to a CueStream.
func Stream(entries []Entry) CueStream {
	return func(yield func(Entry) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// reads an ordered cue list from a file
type CueSource interface {
	Read(path string) ([]Entry, error)
}

// serialises cues to a file
type CueSink interface {
	Write(path string, entries []Entry) error
}
