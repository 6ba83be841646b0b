package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kaatna/internal/config"
	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/timecode"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"#", "Media"},
		[][]string{{"1", "clip1.mp4"}, {"2"}},
		[]columnAlignment{alignRight},
	)
	for _, want := range []string{"#", "Media", "clip1.mp4", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}

func TestWriteRowsPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	writeRows(&buf, []string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}}, nil)

	want := "1\tx\n2\ty\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteEntries(t *testing.T) {
	entries := []manifest.Entry{
		{
			SegmentIndex:    1,
			Media:           "/out/clip1.mp4",
			Subtitles:       "/out/clip1.vtt",
			Start:           timecode.MustParse("00:00:00.000"),
			End:             timecode.MustParse("00:00:04.000"),
			DurationSeconds: 4,
		},
		{
			SegmentIndex:    2,
			Media:           "/out/clip2.mp4",
			Start:           timecode.MustParse("00:00:04.000"),
			End:             timecode.MustParse("00:00:06.500"),
			DurationSeconds: 2.5,
		},
	}

	var buf bytes.Buffer
	writeEntries(&buf, entries)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "1\t00:00:00.000\t00:00:04.000\t4.000\tclip1.mp4\tclip1.vtt" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "clip2.mp4\t-") {
		t.Errorf("expected dash for missing subtitles, got %q", lines[1])
	}
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addSegmentFlags(cmd)
	addExtractFlags(cmd)
	return cmd
}

func TestApplyFlagsOverridesOnlyChanged(t *testing.T) {
	cmd := newFlagCommand()
	set := map[string]string{
		"duration":        "90s",
		"format":          "SRT",
		"concurrency":     "5",
		"copy":            "true",
		"manifest-format": "sqlite",
	}
	for name, value := range set {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	c := config.Default()
	c.Extract.CRF = 28
	c.Output.KeepPartial = true
	if err := applyFlags(cmd, &c); err != nil {
		t.Fatalf("applyFlags failed: %v", err)
	}

	if c.TargetDuration() != 90*time.Second {
		t.Errorf("target = %s, want 90s", c.TargetDuration())
	}
	if c.Output.SubtitleFormat != "srt" || c.Output.ManifestFormat != "sqlite" {
		t.Errorf("unexpected formats %q %q", c.Output.SubtitleFormat, c.Output.ManifestFormat)
	}
	if c.Extract.Concurrency != 5 || !c.Extract.StreamCopy {
		t.Errorf("unexpected extract config %+v", c.Extract)
	}
	if c.Extract.CRF != 28 || !c.Output.KeepPartial {
		t.Error("unchanged flags must not override config values")
	}
}

func TestApplyFlagsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		flag  string
		value string
	}{
		{name: "zero duration", flag: "duration", value: "0s"},
		{name: "unknown subtitle format", flag: "format", value: "sub"},
		{name: "unknown manifest format", flag: "manifest-format", value: "yaml"},
		{name: "no workers", flag: "concurrency", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCommand()
			if err := cmd.Flags().Set(tt.flag, tt.value); err != nil {
				t.Fatalf("set flag: %v", err)
			}
			c := config.Default()
			err := applyFlags(cmd, &c)
			if !errors.Is(err, faults.ErrConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	c := config.Default()
	c.Output.Dir = "/tmp/out"
	c.Output.SubtitleFormat = "ass"
	c.Output.ManifestFormat = "toml"
	c.Output.Language = "pt-BR"
	c.Segment.TargetSeconds = 45.5
	c.Segment.ExtendTail = true
	c.Extract.StreamCopy = true

	req, err := buildRequest(&c, "movie.mkv", "movie.srt")
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}

	if req.Video != "movie.mkv" || req.Subtitles != "movie.srt" || req.OutputDir != "/tmp/out" {
		t.Errorf("unexpected paths: %+v", req)
	}
	if req.SubtitleFormat != subtitle.FormatASS || req.ManifestFormat != manifest.FormatTOML {
		t.Errorf("unexpected formats %q %q", req.SubtitleFormat, req.ManifestFormat)
	}
	if req.Target != 45500*time.Millisecond || !req.ExtendTail {
		t.Errorf("unexpected segmentation %s %v", req.Target, req.ExtendTail)
	}
	if !req.Extract.StreamCopy || req.Extract.VideoCodec != "libx264" || req.Language != "pt-BR" {
		t.Errorf("unexpected extract options %+v", req.Extract)
	}
	if req.ManifestPath() != filepath.Join("/tmp/out", "manifest.toml") {
		t.Errorf("unexpected manifest path %s", req.ManifestPath())
	}
}

type fixture struct {
	dir       string
	config    string
	video     string
	subtitles string
	out       string
}

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// fake ffmpeg/ffprobe plus a config pointing at them
func newFixture(t *testing.T) fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools need a unix shell")
	}

	dir := t.TempDir()
	ffprobe := filepath.Join(dir, "ffprobe")
	writeExecutable(t, ffprobe, `cat <<'JSON'
{"streams":[{"codec_type":"video","codec_name":"h264","width":640,"height":360,"avg_frame_rate":"25/1"},{"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"10.0","format_name":"mov,mp4"}}
JSON`)
	ffmpeg := filepath.Join(dir, "ffmpeg")
	writeExecutable(t, ffmpeg, `for a; do case "$a" in */clip*.mp4) out="$a";; esac; done
echo media > "$out"`)

	cfgPath := filepath.Join(dir, "kaatna.toml")
	cfgText := "[extract]\n" +
		"ffmpeg_path = \"" + ffmpeg + "\"\n" +
		"ffprobe_path = \"" + ffprobe + "\"\n" +
		"[logging]\nlevel = \"error\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	videoPath := filepath.Join(dir, "movie.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	subsPath := filepath.Join(dir, "movie.srt")
	srt := `1
00:00:00,000 --> 00:00:02,000
One

2
00:00:02,000 --> 00:00:04,000
Two

3
00:00:04,000 --> 00:00:06,000
Three
`
	if err := os.WriteFile(subsPath, []byte(srt), 0o644); err != nil {
		t.Fatalf("write subtitles: %v", err)
	}

	return fixture{
		dir:       dir,
		config:    cfgPath,
		video:     videoPath,
		subtitles: subsPath,
		out:       filepath.Join(dir, "clips"),
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSplitCommand(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "split", fx.video,
		"-c", fx.config,
		"-o", fx.out,
		"-s", fx.subtitles,
		"-d", "3s",
	)
	if err != nil {
		t.Fatalf("split failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"Segment 1: 00:00:00.000 - 00:00:04.000",
		"Segment 2: 00:00:04.000 - 00:00:06.000",
		"Manifest written: " + filepath.Join(fx.out, "manifest.json"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	for _, name := range []string{"clip1.mp4", "clip1.vtt", "clip2.mp4", "clip2.vtt", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(fx.out, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	entries, err := subtitle.Source{}.Read(filepath.Join(fx.out, "clip2.vtt"))
	if err != nil {
		t.Fatalf("read clip2.vtt: %v", err)
	}
	if len(entries) != 1 || !entries[0].StartTime.IsZero() || entries[0].Text != "Three" {
		t.Errorf("expected one re-based cue, got %+v", entries)
	}
}

func TestPlanCommandWritesNothing(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "plan", fx.video,
		"-c", fx.config,
		"-o", fx.out,
		"-s", fx.subtitles,
		"-d", "3s",
	)
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 segments (cues mode, target 3s)") {
		t.Errorf("unexpected plan output:\n%s", out)
	}
	if !strings.Contains(out, "1\t00:00:00.000\t00:00:04.000\t4.000\t2\tclip1.mp4\tclip1.vtt") {
		t.Errorf("missing first plan row:\n%s", out)
	}
	if _, err := os.Stat(fx.out); !os.IsNotExist(err) {
		t.Errorf("plan must not create the output directory, stat err = %v", err)
	}
}

func TestProbeCommand(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "probe", fx.video, "-c", fx.config)
	if err != nil {
		t.Fatalf("probe failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Duration\t10s", "Resolution\t640x360", "Frame rate\t25", "Audio\tyes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaatna.toml")

	if _, err := execute(t, "init-config", path); err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config does not load: exists=%v err=%v", exists, err)
	}

	_, err := execute(t, "init-config", path)
	if !errors.Is(err, faults.ErrConfig) {
		t.Errorf("expected config error for existing file, got %v", err)
	}
}
