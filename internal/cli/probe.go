package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kaatna/internal/config"
	ffmpegbin "github.com/mgpai22/kaatna/internal/ffmpeg"
	"github.com/mgpai22/kaatna/internal/video"
)

var probeCmd = &cobra.Command{
	Use:   "probe [video_file]",
	Short: "Print media information for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("backend") {
			cfg.Extract.Probe, _ = cmd.Flags().GetString("backend")
			if err := cfg.Prepare(); err != nil {
				return err
			}
		}

		prober, err := proberFor(cfg)
		if err != nil {
			return err
		}
		info, err := prober.GetInfo(context.Background(), args[0])
		if err != nil {
			return err
		}
		writeInfo(cmd.OutOrStdout(), info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().String("backend", "ffprobe", "Probe backend (ffprobe, vidio)")
}

func processorFor(c *config.Config) *video.DefaultProcessor {
	return video.NewProcessor(ffmpegbin.BinaryPaths{
		FFmpeg:  c.Extract.FFmpegPath,
		FFprobe: c.Extract.FFprobePath,
	})
}

func proberFor(c *config.Config) (video.Prober, error) {
	return video.NewProber(c.Extract.Probe, processorFor(c))
}
