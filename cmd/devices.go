package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/nevet/basic-MCI-Recorder/internal/audio"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"sources"},
	Short:   "List available audio devices",
	Long:    `List the capture and playback devices miniaudio can open. A capture device name can be set as audio.device in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListDevices(slog.Default())
		if err != nil {
			return fmt.Errorf("failed to list audio devices: %w", err)
		}

		fmt.Printf("Audio Devices (%s, backends: %v)\n", runtime.GOOS, audio.GetAvailableBackends())
		fmt.Printf("═══════════════════════════════════════\n\n")

		printDevices("CAPTURE", devices.Capture)
		printDevices("PLAYBACK", devices.Playback)

		if cfg.Audio.Device != "" {
			fmt.Printf("Configured capture device: %q\n", cfg.Audio.Device)
		}
		return nil
	},
}

func printDevices(kind string, devices []audio.DeviceInfo) {
	fmt.Printf("%s DEVICES (%d found):\n", kind, len(devices))
	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("  %d. %s%s\n", i+1, device.Name, marker)
	}
	fmt.Println()
}
