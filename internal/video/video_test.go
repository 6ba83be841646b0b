package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/kaatna/internal/faults"
	ffmpegbin "github.com/mgpai22/kaatna/internal/ffmpeg"
)

func argValue(args []string, flag string) (string, bool) {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return "", false
	}
	return args[i+1], true
}

func TestSegmentArgsReencode(t *testing.T) {
	opts := DefaultExtractOptions()
	opts.FrameRate = 29.97
	args := SegmentArgs("in.mp4", 60, 125.5, opts, "out/clip2.mp4")

	ss := slices.Index(args, "-ss")
	in := slices.Index(args, "-i")
	if ss < 0 || in < 0 || ss > in {
		t.Fatalf("expected input seek before -i, got %v", args)
	}

	checks := map[string]string{
		"-ss":     "60.000",
		"-i":      "in.mp4",
		"-t":      "65.500",
		"-c:v":    "libx264",
		"-c:a":    "aac",
		"-preset": "veryfast",
		"-crf":    "20",
		"-r":      "29.97",
	}
	for flag, want := range checks {
		got, ok := argValue(args, flag)
		if !ok || got != want {
			t.Errorf("%s: got %q, want %q (args %v)", flag, got, want, args)
		}
	}

	if !slices.Contains(args, "-y") {
		t.Errorf("expected overwrite flag, got %v", args)
	}
	if !slices.Contains(args, "out/clip2.mp4") {
		t.Errorf("expected output path, got %v", args)
	}
}

func TestSegmentArgsStreamCopy(t *testing.T) {
	opts := DefaultExtractOptions()
	opts.StreamCopy = true
	opts.FrameRate = 25
	args := SegmentArgs("in.mkv", 0, 10, opts, "clip1.mkv")

	if got, _ := argValue(args, "-c"); got != "copy" {
		t.Errorf("expected -c copy, got %v", args)
	}
	for _, flag := range []string{"-c:v", "-c:a", "-r", "-preset"} {
		if slices.Contains(args, flag) {
			t.Errorf("stream copy should not pass %s: %v", flag, args)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := map[float64]string{
		25:     "25",
		29.97:  "29.97",
		23.976: "23.976",
		59.94:  "59.94",
	}
	for in, want := range tests {
		if got := formatRate(in); got != want {
			t.Errorf("formatRate(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001"},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "125.0400", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Duration != 125040*time.Millisecond {
		t.Errorf("duration: got %v", info.Duration)
	}
	if info.Width != 1920 || info.Height != 1080 || info.Codec != "h264" {
		t.Errorf("unexpected video stream info: %+v", info)
	}
	if info.FrameRate < 29.96 || info.FrameRate > 29.98 {
		t.Errorf("frame rate: got %v", info.FrameRate)
	}
	if !info.HasAudio {
		t.Error("expected audio stream")
	}
}

func TestParseProbeStreamDurationFallback(t *testing.T) {
	data := []byte(`{"streams":[{"codec_type":"video","codec_name":"vp9","avg_frame_rate":"0/0","r_frame_rate":"25/1","duration":"9.5"}],"format":{"duration":"N/A"}}`)
	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Duration != 9500*time.Millisecond {
		t.Errorf("duration: got %v", info.Duration)
	}
	if info.FrameRate != 25 {
		t.Errorf("frame rate: got %v", info.FrameRate)
	}
	if info.HasAudio {
		t.Error("unexpected audio")
	}
}

func TestParseProbeInvalid(t *testing.T) {
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid output")
	}
	if _, err := parseProbe([]byte(`{"format":{"duration":"abc"}}`)); err == nil {
		t.Error("expected error for invalid duration")
	}
}

// writes an executable shell script standing in for ffmpeg/ffprobe
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExtractSegmentRunsFFmpeg(t *testing.T) {
	tool := fakeTool(t, `for a; do case "$a" in *clip1.mp4) out="$a";; esac; done
echo "$@" > "$out"`)
	dir := t.TempDir()
	source := filepath.Join(dir, "in.mp4")
	touch(t, source)

	p := NewProcessor(ffmpegbin.BinaryPaths{FFmpeg: tool, FFprobe: tool})
	out := filepath.Join(dir, "clips", "clip1.mp4")
	if err := p.ExtractSegment(context.Background(), source, 0, 5, DefaultExtractOptions(), out); err != nil {
		t.Fatalf("ExtractSegment failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(data), "-t 5.000") {
		t.Errorf("unexpected ffmpeg args: %s", data)
	}
}

func TestExtractSegmentFailure(t *testing.T) {
	tool := fakeTool(t, `echo "Invalid data found when processing input" >&2
exit 1`)
	dir := t.TempDir()
	source := filepath.Join(dir, "in.mp4")
	touch(t, source)

	p := NewProcessor(ffmpegbin.BinaryPaths{FFmpeg: tool, FFprobe: tool})
	err := p.ExtractSegment(context.Background(), source, 0, 5, DefaultExtractOptions(), filepath.Join(dir, "clip1.mp4"))
	if !errors.Is(err, faults.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Errorf("expected ffmpeg stderr in error, got %v", err)
	}
}

func TestExtractSegmentValidation(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "in.mp4")
	touch(t, source)
	p := NewProcessor(ffmpegbin.BinaryPaths{FFmpeg: "/nonexistent/ffmpeg", FFprobe: "/nonexistent/ffprobe"})

	tests := []struct {
		name       string
		source     string
		start, end float64
	}{
		{name: "missing source", source: filepath.Join(dir, "missing.mp4"), start: 0, end: 1},
		{name: "empty range", source: source, start: 5, end: 5},
		{name: "inverted range", source: source, start: 5, end: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ExtractSegment(context.Background(), tt.source, tt.start, tt.end, DefaultExtractOptions(), filepath.Join(dir, "out.mp4"))
			if !errors.Is(err, faults.ErrExtraction) {
				t.Errorf("expected extraction error, got %v", err)
			}
		})
	}
}

func TestGetInfoWithFFprobe(t *testing.T) {
	tool := fakeTool(t, `cat <<'JSON'
{"streams":[{"codec_type":"video","codec_name":"h264","width":640,"height":360,"avg_frame_rate":"24/1"}],"format":{"duration":"61.5"}}
JSON`)
	dir := t.TempDir()
	source := filepath.Join(dir, "in.mp4")
	touch(t, source)

	p := NewProcessor(ffmpegbin.BinaryPaths{FFmpeg: tool, FFprobe: tool})
	info, err := p.GetInfo(context.Background(), source)
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.Path != source || info.Duration != 61500*time.Millisecond || info.FrameRate != 24 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestGetInfoMissingFile(t *testing.T) {
	p := NewProcessor(ffmpegbin.BinaryPaths{FFmpeg: "ffmpeg", FFprobe: "ffprobe"})
	_, err := p.GetInfo(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, faults.ErrSourceRead) {
		t.Errorf("expected source read error, got %v", err)
	}

	_, err = VidioProber{}.GetInfo(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, faults.ErrSourceRead) {
		t.Errorf("vidio: expected source read error, got %v", err)
	}
}

func TestNewProber(t *testing.T) {
	p := NewProcessor(ffmpegbin.BinaryPaths{})
	for _, name := range []string{"", "ffprobe"} {
		got, err := NewProber(name, p)
		if err != nil || got != Prober(p) {
			t.Errorf("%q: got %v, %v", name, got, err)
		}
	}
	if got, err := NewProber("vidio", p); err != nil {
		t.Errorf("vidio: %v", err)
	} else if _, ok := got.(VidioProber); !ok {
		t.Errorf("vidio: got %T", got)
	}
	if _, err := NewProber("mediainfo", p); !errors.Is(err, faults.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
