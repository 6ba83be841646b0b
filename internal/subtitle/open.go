package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/kaatna/internal/faults"
)

// parsed subtitle file that preserves format specific metadata
type File interface {
	Format() Format
	Subtitle() *Subtitle
	// WithEntries returns a copy of the file carrying entries instead of the
	// parsed ones. Header, styles and per-cue fields are kept where the format has them.
	WithEntries(entries []Entry) (File, error)
	Write(path string) error
}

func Open(path string) (File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return parseSRTFile(path)
	case ".vtt":
		return parseVTTFile(path)
	case ".ass", ".ssa":
		return parseASSFile(path)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}

var (
	_ CueSource = Source{}
	_ CueSink   = Sink{}
)

// Source reads cue lists from subtitle files on disk.
type Source struct{}

// Open parses path and checks every cue ends at or after its start.
func (Source) Open(path string) (File, error) {
	file, err := Open(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "read cues", path, err)
	}
	for _, e := range file.Subtitle().Entries {
		if e.EndTime.Before(e.StartTime) {
			return nil, faults.Wrap(
				faults.ErrSourceRead,
				"read cues",
				path,
				faults.Errorf(
					faults.ErrFormat,
					"validate cue",
					"cue %d ends at %s before it starts at %s",
					e.Index, e.EndTime, e.StartTime,
				),
			)
		}
	}
	return file, nil
}

// Read returns the cues of path in file order.
func (s Source) Read(path string) ([]Entry, error) {
	file, err := s.Open(path)
	if err != nil {
		return nil, err
	}
	return file.Subtitle().Entries, nil
}

// Sink writes cue lists in one subtitle format. When Template has the same
// format its metadata (VTT header, ASS styles) is carried into every file.
type Sink struct {
	Format   Format
	Template File
	Language string
}

func (s Sink) Write(path string, entries []Entry) error {
	if err := s.write(path, entries); err != nil {
		return faults.Wrap(faults.ErrSinkWrite, "write cues", path, err)
	}
	return nil
}

func (s Sink) write(path string, entries []Entry) error {
	if s.Template != nil && s.Template.Format() == s.Format {
		file, err := s.Template.WithEntries(entries)
		if err != nil {
			return err
		}
		return file.Write(path)
	}

	writer, err := NewWriter(s.Format)
	if err != nil {
		return err
	}
	return writer.Write(&Subtitle{
		Entries:  entries,
		Language: s.Language,
		Format:   string(s.Format),
	}, path)
}

// Extension is the file suffix the sink produces.
func (s Sink) Extension() string {
	return GetExtensionForFormat(s.Format)
}
