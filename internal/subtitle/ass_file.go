package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/fileutil"
	"github.com/mgpai22/kaatna/internal/timecode"
)

// parsed Dialogue line with all fields
type ASSDialogue struct {
	FieldsBefore    []string
	Text            string
	LeadingTags     string
	TextWithoutTags string
	OriginalLine    string
	Start           timecode.TimeCode
	End             timecode.TimeCode
}

// parsed ASS/SSA subtitle file that preserves all metadata
type ASSFile struct {
	preEventsLines        []string
	formatLine            string
	formatColumns         []string
	textColumnIndex       int
	startColumnIndex      int
	endColumnIndex        int
	dialogues             []ASSDialogue
	nonDialogueEventLines []string
}

func parseASSFile(path string) (*ASSFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	assFile := &ASSFile{
		preEventsLines:        make([]string, 0),
		dialogues:             make([]ASSDialogue, 0),
		nonDialogueEventLines: make([]string, 0),
		textColumnIndex:       -1,
		startColumnIndex:      -1,
		endColumnIndex:        -1,
	}

	scanner := bufio.NewScanner(file)
	inEventsSection := false
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			sectionName := strings.ToLower(
				strings.TrimSuffix(strings.TrimPrefix(trimmedLine, "["), "]"),
			)
			if sectionName == "events" {
				inEventsSection = true
				assFile.preEventsLines = append(assFile.preEventsLines, line)
				continue
			} else {
				if inEventsSection {
					inEventsSection = false
				}
				assFile.preEventsLines = append(assFile.preEventsLines, line)
				continue
			}
		}

		if !inEventsSection {
			assFile.preEventsLines = append(assFile.preEventsLines, line)
			continue
		}

		if strings.HasPrefix(trimmedLine, "Format:") {
			assFile.formatLine = line
			formatPart := strings.TrimPrefix(trimmedLine, "Format:")
			columns := strings.Split(formatPart, ",")
			for i, col := range columns {
				columns[i] = strings.TrimSpace(col)
			}
			assFile.formatColumns = columns
			for i, col := range columns {
				switch strings.ToLower(col) {
				case "text":
					assFile.textColumnIndex = i
				case "start":
					assFile.startColumnIndex = i
				case "end":
					assFile.endColumnIndex = i
				}
			}
			if assFile.textColumnIndex == -1 ||
				assFile.startColumnIndex == -1 ||
				assFile.endColumnIndex == -1 {
				return nil, faults.Errorf(
					faults.ErrFormat,
					"parse ASS",
					"Format line must name Start, End and Text columns",
				)
			}
			continue
		}

		if strings.HasPrefix(trimmedLine, "Dialogue:") {
			dialogue, err := assFile.parseDialogueLine(line)
			if err != nil {
				return nil, faults.Wrap(
					faults.ErrFormat,
					"parse ASS",
					fmt.Sprintf("Dialogue at line %d", lineNum),
					err,
				)
			}
			assFile.dialogues = append(assFile.dialogues, dialogue)
			continue
		}

		assFile.nonDialogueEventLines = append(
			assFile.nonDialogueEventLines,
			line,
		)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if assFile.formatLine == "" {
		return nil, faults.Errorf(
			faults.ErrFormat,
			"parse ASS",
			"missing Format line in [Events] section",
		)
	}

	return assFile, nil
}

func (f *ASSFile) parseDialogueLine(line string) (ASSDialogue, error) {
	dialogue := ASSDialogue{OriginalLine: line}

	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "Dialogue:") {
		return dialogue, fmt.Errorf("not a Dialogue line")
	}
	content := strings.TrimPrefix(trimmed, "Dialogue:")
	content = strings.TrimSpace(content)

	numColumns := len(f.formatColumns)
	if numColumns == 0 {
		return dialogue, fmt.Errorf("format columns not parsed yet")
	}

	parts := splitASSFields(content, numColumns)
	if len(parts) < numColumns {
		return dialogue, fmt.Errorf(
			"expected %d fields, got %d",
			numColumns,
			len(parts),
		)
	}

	dialogue.FieldsBefore = parts[:f.textColumnIndex]
	dialogue.Text = parts[f.textColumnIndex]

	var err error
	if dialogue.Start, err = timecode.ParseLoose(strings.TrimSpace(parts[f.startColumnIndex])); err != nil {
		return dialogue, fmt.Errorf("invalid start timestamp: %w", err)
	}
	if dialogue.End, err = timecode.ParseLoose(strings.TrimSpace(parts[f.endColumnIndex])); err != nil {
		return dialogue, fmt.Errorf("invalid end timestamp: %w", err)
	}

	leadingTags, textWithoutTags := extractLeadingTags(dialogue.Text)
	dialogue.LeadingTags = leadingTags
	dialogue.TextWithoutTags = textWithoutTags

	return dialogue, nil
}

func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}

	parts := make([]string, 0, numFields)
	remaining := content

	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}

	parts = append(parts, remaining)

	return parts
}

func extractLeadingTags(text string) (string, string) {
	tagRegex := regexp.MustCompile(`^(\{[^}]*\})+`)
	match := tagRegex.FindString(text)
	if match == "" {
		return "", text
	}
	return match, text[len(match):]
}

func (f *ASSFile) Format() Format {
	return FormatASS
}

func (f *ASSFile) Subtitle() *Subtitle {
	entries := make([]Entry, len(f.dialogues))

	for i, d := range f.dialogues {
		text := strings.ReplaceAll(d.Text, "\\N", "\n")
		text = strings.ReplaceAll(text, "\\n", "\n")

		entries[i] = Entry{
			Index:     i + 1,
			StartTime: d.Start,
			EndTime:   d.End,
			Text:      text,
		}
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatASS),
	}
}

// WithEntries builds an excerpt that keeps the script header, styles and the
// non-timing fields of each source Dialogue (matched by Entry.Index) while
// taking timing and text from entries.
func (f *ASSFile) WithEntries(entries []Entry) (File, error) {
	out := &ASSFile{
		preEventsLines:        f.preEventsLines,
		formatLine:            f.formatLine,
		formatColumns:         f.formatColumns,
		textColumnIndex:       f.textColumnIndex,
		startColumnIndex:      f.startColumnIndex,
		endColumnIndex:        f.endColumnIndex,
		dialogues:             make([]ASSDialogue, 0, len(entries)),
		nonDialogueEventLines: f.nonDialogueEventLines,
	}

	for _, entry := range entries {
		var fields []string
		if entry.Index >= 1 && entry.Index <= len(f.dialogues) {
			fields = append([]string(nil), f.dialogues[entry.Index-1].FieldsBefore...)
		} else {
			fields = f.defaultFields()
		}

		for len(fields) < f.textColumnIndex {
			fields = append(fields, "")
		}
		if f.startColumnIndex < len(fields) {
			fields[f.startColumnIndex] = formatASSTime(entry.StartTime)
		}
		if f.endColumnIndex < len(fields) {
			fields[f.endColumnIndex] = formatASSTime(entry.EndTime)
		}

		text := escapeASSText(entry.Text)
		leading, plain := extractLeadingTags(text)

		out.dialogues = append(out.dialogues, ASSDialogue{
			FieldsBefore:    fields,
			Text:            text,
			LeadingTags:     leading,
			TextWithoutTags: plain,
			Start:           entry.StartTime,
			End:             entry.EndTime,
		})
	}

	return out, nil
}

// fields for an entry that has no source Dialogue
func (f *ASSFile) defaultFields() []string {
	fields := make([]string, f.textColumnIndex)
	for i := range fields {
		switch strings.ToLower(f.formatColumns[i]) {
		case "layer", "marginl", "marginr", "marginv":
			fields[i] = "0"
		case "style":
			fields[i] = "Default"
		}
	}
	return fields
}

func (f *ASSFile) Write(path string) error {
	var sb strings.Builder

	for _, line := range f.preEventsLines {
		sb.WriteString(line + "\n")
	}

	sb.WriteString(f.formatLine + "\n")

	for _, d := range f.dialogues {
		sb.WriteString(f.buildDialogueLine(d) + "\n")
	}

	for _, line := range f.nonDialogueEventLines {
		sb.WriteString(line + "\n")
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ASS file: %w", err)
	}
	return nil
}

func (f *ASSFile) buildDialogueLine(d ASSDialogue) string {
	allFields := make([]string, len(f.formatColumns))
	for i, field := range d.FieldsBefore {
		if i < len(allFields) {
			allFields[i] = field
		}
	}

	allFields[f.textColumnIndex] = d.Text

	return "Dialogue: " + strings.Join(allFields, ",")
}
