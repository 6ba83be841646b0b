package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [video_file]",
	Short: "Show where a video would be cut without writing anything",
	Long: `Probe the video, read the subtitles and print the clips split would
produce. Nothing is extracted and no files are written.

Examples:
  kaatna plan movie.mp4 -s movie.srt
  kaatna plan movie.mp4 -d 45s`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addSegmentFlags(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	subtitlesPath, _ := cmd.Flags().GetString("subtitles")

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	req, err := buildRequest(cfg, videoPath, subtitlesPath)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	plan, err := runner.Plan(context.Background(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writePlan(out, plan)
	fmt.Fprintf(out, "%d segments (%s mode, target %s)\n", len(plan.Jobs), plan.Mode, req.Target)
	return nil
}
