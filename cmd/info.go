package cmd

import (
	"fmt"
	"time"

	"github.com/nevet/basic-MCI-Recorder/internal/library"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show resolved configuration and the file a recording would be saved to",
	Long:  `Display the resolved configuration with inheritance indicators. Shows which values are inherited from default vs profile-specific.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}

		fmt.Printf("=== FILE PATHS ===\n")
		fmt.Printf("config: %s\n", cfgFile)
		fmt.Printf("next_recording: %s\n", library.NewRecordingPath(cfg.Output.Directory, name, time.Now()))

		// Display resolved configuration with inheritance indicators
		fmt.Printf("\n=== RESOLVED CONFIGURATION (%s) ===\n", cfg.Profile)

		if cfg.Inheritance == nil {
			fmt.Printf("\n(built-in defaults)\n")
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			fmt.Print(string(out))
			return nil
		}

		inh := cfg.Inheritance

		fmt.Printf("\n[Audio]\n")
		fmt.Printf("backend: %s %s\n", cfg.Audio.Backend, getInheritanceIndicator(inh.Audio.Backend))
		fmt.Printf("sample_rate: %d %s\n", cfg.Audio.SampleRate, getInheritanceIndicator(inh.Audio.SampleRate))
		fmt.Printf("channels: %d %s\n", cfg.Audio.Channels, getInheritanceIndicator(inh.Audio.Channels))
		fmt.Printf("device: %q %s\n", cfg.Audio.Device, getInheritanceIndicator(inh.Audio.Device))

		fmt.Printf("\n[Output]\n")
		fmt.Printf("directory: %s %s\n", cfg.Output.Directory, getInheritanceIndicator(inh.Output.Directory))
		fmt.Printf("format: %s %s\n", cfg.Output.Format, getInheritanceIndicator(inh.Output.Format))

		fmt.Printf("\n[Display]\n")
		fmt.Printf("progress_interval: %s %s\n", cfg.Display.ProgressInterval, getInheritanceIndicator(inh.Display.ProgressInterval))
		fmt.Printf("progress_maximum: %d %s\n", cfg.Display.ProgressMaximum, getInheritanceIndicator(inh.Display.ProgressMaximum))

		fmt.Printf("\n[Server]\n")
		fmt.Printf("port: %d %s\n", cfg.Server.Port, getInheritanceIndicator(inh.Server.Port))

		return nil
	},
}

// getInheritanceIndicator returns a formatted indicator for inheritance status
func getInheritanceIndicator(status string) string {
	switch status {
	case "inherited":
		return "[inherited]"
	case "profile-specific":
		return "[profile-specific]"
	default:
		return "[unknown]"
	}
}
