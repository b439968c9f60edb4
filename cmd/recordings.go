package cmd

import (
	"fmt"

	"github.com/nevet/basic-MCI-Recorder/internal/library"

	"github.com/spf13/cobra"
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List saved recordings",
	Long:  `List the WAV files in the output directory, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recordings, err := library.List(cfg.Output.Directory)
		if err != nil {
			return err
		}

		fmt.Printf("Recordings in %s (%d found):\n", cfg.Output.Directory, len(recordings))
		for _, rec := range recordings {
			fmt.Printf("  %-32s %s  %8s  %s\n", rec.Name, rec.DurationHuman, rec.SizeHuman, rec.ModTimeHuman)
		}
		return nil
	},
}
