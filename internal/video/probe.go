package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kaatna/internal/faults"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// retrieves video file information with ffprobe
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "probe", "video file not found", err)
	}

	paths, err := p.binaries()
	if err != nil {
		return nil, faults.Wrap(faults.ErrExtraction, "probe", "ffprobe unavailable", err)
	}

	cmd := exec.CommandContext(ctx, paths.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "probe", "ffprobe failed", err)
	}

	info, err := parseProbe(out.Bytes())
	if err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "probe", videoPath, err)
	}
	info.Path = videoPath
	return info, nil
}

func parseProbe(data []byte) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{FormatName: probe.Format.FormatName}

	seconds, err := parseSecondsField(probe.Format.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if info.Codec != "" {
				continue
			}
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.FrameRate = parseFrameRate(s.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = parseFrameRate(s.RFrameRate)
			}
			if seconds == 0 {
				seconds, _ = parseSecondsField(s.Duration)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	info.Duration = secondsToDuration(seconds)
	return info, nil
}

func parseSecondsField(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

// "30000/1001" or "25"
func parseFrameRate(value string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(value), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// rounded to the millisecond so probe results line up with cue timing
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds*1000+0.5) * time.Millisecond
}
