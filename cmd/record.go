package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nevet/basic-MCI-Recorder/internal/library"
	"github.com/nevet/basic-MCI-Recorder/internal/session"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record [name]",
	Short: "Record until Enter or Ctrl+C and save the result",
	Long: `Record audio from the configured capture device. Recording stops when
Enter is pressed or on Ctrl+C and is saved as a WAV file in the output
directory, named after the argument or a timestamp.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		if dir, _ := cmd.Flags().GetString("output"); dir != "" {
			cfg.Output.Directory = dir
		}

		savePath := library.NewRecordingPath(cfg.Output.Directory, name, time.Now())
		slog.Info("Record command started", "path", savePath)

		term := newTerminal(os.Stdout, nil, cfg.Output.Directory)
		sess, err := startSession(cmd.Context(), term, session.FixedPrompter{Save: savePath}, nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Record(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		slog.Info("Recording... Press Enter or Ctrl+C to stop")

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		waitForStop(sigChan, readLines(os.Stdin))
		slog.Info("Stopping recording...")

		if err := sess.Stop(cmd.Context()); err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
		fmt.Printf("\nSaved %s\n", savePath)
		return nil
	},
}

// waitForStop returns on a signal or an entered line. Once lines is closed
// (stdin at EOF, e.g. /dev/null) only a signal stops the recording.
func waitForStop(sig <-chan os.Signal, lines <-chan string) {
	for {
		select {
		case <-sig:
			return
		case _, ok := <-lines:
			if ok {
				return
			}
			lines = nil
		}
	}
}

func init() {
	recordCmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
}
