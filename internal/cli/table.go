package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/pipeline"
	"github.com/mgpai22/kaatna/internal/video"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writes rows as a table on a terminal and as tab separated lines otherwise
func writeRows(w io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	if isTerminal(w) {
		fmt.Fprintln(w, renderTable(headers, rows, aligns))
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
}

var segmentAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}

func writeEntries(w io.Writer, entries []manifest.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.SegmentIndex),
			e.Start.String(),
			e.End.String(),
			strconv.FormatFloat(e.DurationSeconds, 'f', 3, 64),
			filepath.Base(e.Media),
			baseOrDash(e.Subtitles),
		})
	}
	writeRows(w,
		[]string{"#", "Start", "End", "Seconds", "Media", "Subtitles"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	)
}

func writePlan(w io.Writer, plan *pipeline.Plan) {
	rows := make([][]string, 0, len(plan.Jobs))
	for _, job := range plan.Jobs {
		seg := job.Segment
		rows = append(rows, []string{
			strconv.Itoa(seg.Index),
			seg.Start.String(),
			seg.End.String(),
			strconv.FormatFloat(seg.Duration().Seconds(), 'f', 3, 64),
			strconv.Itoa(len(seg.Cues)),
			filepath.Base(job.Media),
			baseOrDash(job.Subtitles),
		})
	}
	writeRows(w, []string{"#", "Start", "End", "Seconds", "Cues", "Media", "Subtitles"}, rows, segmentAligns)
}

func writeInfo(w io.Writer, info *video.Info) {
	audio := "no"
	if info.HasAudio {
		audio = "yes"
	}
	rows := [][]string{
		{"Path", info.Path},
		{"Duration", info.Duration.String()},
		{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Frame rate", strconv.FormatFloat(info.FrameRate, 'f', -1, 64)},
		{"Codec", info.Codec},
		{"Audio", audio},
		{"Container", info.FormatName},
	}
	writeRows(w, []string{"Field", "Value"}, rows, nil)
}

func baseOrDash(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
