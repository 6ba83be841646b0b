package video

import (
	"context"
	"os"

	vidio "github.com/AlexEidt/Vidio"

	"github.com/mgpai22/kaatna/internal/faults"
)

// VidioProber reads media information through the Vidio library. It needs
// ffprobe on PATH and ignores ffmpeg path overrides.
type VidioProber struct{}

func (VidioProber) GetInfo(ctx context.Context, videoPath string) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "probe", "video file not found", err)
	}

	v, err := vidio.NewVideo(videoPath)
	if err != nil {
		return nil, faults.Wrap(faults.ErrSourceRead, "probe", videoPath, err)
	}
	defer v.Close()

	return &Info{
		Path:      videoPath,
		Duration:  secondsToDuration(v.Duration()),
		Width:     v.Width(),
		Height:    v.Height(),
		FrameRate: v.FPS(),
		Codec:     v.Codec(),
		HasAudio:  v.HasStreams(),
	}, nil
}

// NewProber picks a probing backend by name: "ffprobe" (default) or "vidio".
func NewProber(backend string, processor *DefaultProcessor) (Prober, error) {
	switch backend {
	case "", "ffprobe":
		return processor, nil
	case "vidio":
		return VidioProber{}, nil
	default:
		return nil, faults.Errorf(faults.ErrConfig, "probe", "unknown probe backend %q: use ffprobe or vidio", backend)
	}
}
