package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/kaatna/internal/config"
	"github.com/mgpai22/kaatna/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kaatna",
	Short: "Split videos into clips along subtitle cue boundaries",
	Long: `Kaatna cuts a video into independently playable clips.

When a subtitle file is given, cuts fall on cue boundaries once the cues
seen so far add up to the target duration, and every clip gets its own
subtitle file re-timed to start at zero. Without subtitles the video is
cut into fixed windows. A manifest lists every clip written.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(logging.Options{
			Format: cfg.Logging.Format,
			Level:  cfg.Logging.Level,
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/kaatna/config.toml or ./kaatna.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory for clips and manifest")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language tag for written subtitles (e.g., en, es, pt-BR)")
}

// loads the config file and applies the root flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loaded, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		loaded.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("language") {
		loaded.Output.Language, _ = flags.GetString("language")
	}
	if verbose {
		loaded.Logging.Level = "debug"
	}

	if err := loaded.Prepare(); err != nil {
		return nil, err
	}
	return loaded, nil
}
