package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/timecode"
)

var srtTimingRegex = regexp.MustCompile(
	`^\s*(\d{2,}:\d{2}:\d{2}[,.]\d+)\s*-->\s*(\d{2,}:\d{2}:\d{2}[,.]\d+)`,
)

type SRTFile struct {
	entries []Entry
}

func parseSRTFile(path string) (*SRTFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	var currentEntry *Entry
	var textLines []string
	timed := false
	lineNum := 0
	position := 0

	flush := func() {
		if currentEntry != nil && timed {
			currentEntry.Text = strings.Join(textLines, "\n")
			entries = append(entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
		timed = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if currentEntry == nil {
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				position++
				currentEntry = &Entry{Index: position}
				continue
			}
		}

		if !timed && strings.Contains(line, "-->") {
			matches := srtTimingRegex.FindStringSubmatch(line)
			if matches == nil {
				return nil, faults.Errorf(
					faults.ErrFormat,
					"parse SRT",
					"malformed cue timing at line %d: %q",
					lineNum,
					strings.TrimSpace(line),
				)
			}
			startTime, err := timecode.ParseLoose(matches[1])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid start timestamp at line %d: %w",
					lineNum,
					err,
				)
			}
			endTime, err := timecode.ParseLoose(matches[2])
			if err != nil {
				return nil, fmt.Errorf(
					"invalid end timestamp at line %d: %w",
					lineNum,
					err,
				)
			}
			// tolerate a missing counter line
			if currentEntry == nil {
				position++
				currentEntry = &Entry{Index: position}
			}
			currentEntry.StartTime = startTime
			currentEntry.EndTime = endTime
			timed = true
			continue
		}

		if currentEntry != nil && timed {
			textLines = append(textLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT file: %w", err)
	}
	flush()

	return &SRTFile{entries: entries}, nil
}

func (f *SRTFile) Format() Format {
	return FormatSRT
}

func (f *SRTFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: f.entries,
		Format:  string(FormatSRT),
	}
}

func (f *SRTFile) WithEntries(entries []Entry) (File, error) {
	return &SRTFile{entries: entries}, nil
}

func (f *SRTFile) Write(path string) error {
	return (&SRTWriter{}).Write(f.Subtitle(), path)
}
