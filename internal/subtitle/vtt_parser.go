package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/timecode"
)

var vttTimingRegex = regexp.MustCompile(
	`^\s*((?:\d{2,}:)?\d{2}:\d{2}\.\d+)\s*-->\s*((?:\d{2,}:)?\d{2}:\d{2}\.\d+)`,
)

type VTTFile struct {
	entries  []Entry
	header   []string
	language string
}

func parseVTTFile(path string) (*VTTFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VTT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	vtt := &VTTFile{}
	scanner := bufio.NewScanner(file)

	var currentEntry *Entry
	var textLines []string
	lineNum := 0
	headerParsed := false
	inHeader := false
	entryIndex := 0

	flush := func() {
		if currentEntry != nil {
			currentEntry.Text = strings.Join(textLines, "\n")
			vtt.entries = append(vtt.entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if !headerParsed {
			if strings.HasPrefix(trimmed, "WEBVTT") {
				headerParsed = true
				inHeader = true
				continue
			}
		}

		// metadata lines such as "Language: en" directly follow the signature
		if inHeader {
			if trimmed == "" {
				inHeader = false
				continue
			}
			if !strings.Contains(trimmed, "-->") {
				vtt.header = append(vtt.header, trimmed)
				if key, value, ok := strings.Cut(trimmed, ":"); ok &&
					strings.EqualFold(strings.TrimSpace(key), "language") {
					vtt.language = strings.TrimSpace(value)
				}
				continue
			}
			inHeader = false
		}

		if currentEntry == nil && (strings.HasPrefix(trimmed, "NOTE") ||
			strings.HasPrefix(trimmed, "STYLE") ||
			strings.HasPrefix(trimmed, "REGION")) {
			for scanner.Scan() {
				lineNum++
				if strings.TrimSpace(scanner.Text()) == "" {
					break
				}
			}
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		if strings.Contains(line, "-->") {
			matches := vttTimingRegex.FindStringSubmatch(line)
			if matches == nil {
				return nil, faults.Errorf(
					faults.ErrFormat,
					"parse VTT",
					"malformed cue timing at line %d: %q",
					lineNum,
					trimmed,
				)
			}
			flush()

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

			entryIndex++
			currentEntry = &Entry{
				Index:     entryIndex,
				StartTime: startTime,
				EndTime:   endTime,
			}
			continue
		}

		// lines before a timing line are cue identifiers
		if currentEntry != nil {
			textLines = append(textLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT file: %w", err)
	}
	flush()

	return vtt, nil
}

func (f *VTTFile) Format() Format {
	return FormatVTT
}

func (f *VTTFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries:  f.entries,
		Language: f.language,
		Format:   string(FormatVTT),
	}
}

func (f *VTTFile) WithEntries(entries []Entry) (File, error) {
	return &VTTFile{
		entries:  entries,
		header:   f.header,
		language: f.language,
	}, nil
}

func (f *VTTFile) Write(path string) error {
	writer := &VTTWriter{Header: f.header}
	return writer.Write(f.Subtitle(), path)
}
