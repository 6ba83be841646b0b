package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/kaatna/internal/faults"
	ffmpegbin "github.com/mgpai22/kaatna/internal/ffmpeg"
)

// video file information
type Info struct {
	Path       string
	Duration   time.Duration
	Width      int
	Height     int
	FrameRate  float64
	Codec      string
	HasAudio   bool
	FormatName string
}

// reads media information
type Prober interface {
	GetInfo(ctx context.Context, videoPath string) (*Info, error)
}

// cuts one absolute time range out of a source into its own playable file
type Extractor interface {
	ExtractSegment(
		ctx context.Context,
		source string,
		startSeconds, endSeconds float64,
		opts ExtractOptions,
		outputPath string,
	) error
}

// defines interface for video processing operations
type Processor interface {
	Prober
	Extractor
}

// holds options for segment extraction
type ExtractOptions struct {
	FrameRate  float64 // output frame rate, 0 keeps the source rate
	StreamCopy bool    // copy streams instead of re-encoding (cuts snap to keyframes)
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

// re-encode settings that give frame accurate cuts
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Preset:     "veryfast",
		CRF:        20,
	}
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	binaries func() (ffmpegbin.BinaryPaths, error)
}

// NewProcessor resolves ffmpeg/ffprobe lazily; empty override fields fall back
// to the environment, PATH or the bundled download.
func NewProcessor(override ffmpegbin.BinaryPaths) *DefaultProcessor {
	return &DefaultProcessor{
		binaries: func() (ffmpegbin.BinaryPaths, error) {
			return ffmpegbin.Resolve(override)
		},
	}
}

// cuts [startSeconds, endSeconds) of source into outputPath
func (p *DefaultProcessor) ExtractSegment(
	ctx context.Context,
	source string,
	startSeconds, endSeconds float64,
	opts ExtractOptions,
	outputPath string,
) error {
	if _, err := os.Stat(source); err != nil {
		return faults.Wrap(faults.ErrExtraction, "extract segment", "video file not found", err)
	}
	if endSeconds <= startSeconds {
		return faults.Errorf(
			faults.ErrExtraction,
			"extract segment",
			"empty time range %.3f-%.3f",
			startSeconds, endSeconds,
		)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return faults.Wrap(faults.ErrExtraction, "extract segment", "failed to create output directory", err)
	}

	paths, err := p.binaries()
	if err != nil {
		return faults.Wrap(faults.ErrExtraction, "extract segment", "ffmpeg unavailable", err)
	}

	args := SegmentArgs(source, startSeconds, endSeconds, opts, outputPath)
	cmd := exec.CommandContext(ctx, paths.FFmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return faults.Wrap(
			faults.ErrExtraction,
			"extract segment",
			fmt.Sprintf("ffmpeg failed for %s: %s", filepath.Base(outputPath), lastLines(stderr.String(), 3)),
			err,
		)
	}

	return nil
}

// SegmentArgs builds the ffmpeg argument list for one segment. Seeking is done
// on the input so only the wanted range is decoded.
func SegmentArgs(
	source string,
	startSeconds, endSeconds float64,
	opts ExtractOptions,
	outputPath string,
) []string {
	inputArgs := ffmpeg.KwArgs{
		"ss": formatSeconds(startSeconds),
	}

	outputArgs := ffmpeg.KwArgs{
		"t": formatSeconds(endSeconds - startSeconds),
	}

	if opts.StreamCopy {
		outputArgs["c"] = "copy"
		outputArgs["avoid_negative_ts"] = "make_zero"
	} else {
		if opts.VideoCodec != "" {
			outputArgs["c:v"] = opts.VideoCodec
		}
		if opts.AudioCodec != "" {
			outputArgs["c:a"] = opts.AudioCodec
		}
		if opts.Preset != "" {
			outputArgs["preset"] = opts.Preset
		}
		if opts.CRF > 0 {
			outputArgs["crf"] = opts.CRF
		}
		if opts.FrameRate > 0 {
			outputArgs["r"] = formatRate(opts.FrameRate)
		}
	}

	return ffmpeg.Input(source, inputArgs).
		Output(outputPath, outputArgs).
		OverWriteOutput().
		GetArgs()
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}

func formatRate(rate float64) string {
	s := fmt.Sprintf("%.3f", rate)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
