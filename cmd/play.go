package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nevet/basic-MCI-Recorder/internal/library"
	"github.com/nevet/basic-MCI-Recorder/internal/session"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a recording",
	Long: `Play a WAV file with an elapsed counter and a progress bar. A bare name is
looked up in the output directory. Ctrl+C stops playback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := library.Resolve(cfg.Output.Directory, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Playing: %s\n", path)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		display := &playbackDisplay{terminal: newTerminal(os.Stdout, nil, cfg.Output.Directory), idle: make(chan struct{}, 1)}
		sess, err := startSession(context.Background(), display, session.FixedPrompter{Source: path}, nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Play(ctx); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}

		select {
		case <-display.idle:
		case <-ctx.Done():
			if err := sess.Stop(context.Background()); err != nil {
				return fmt.Errorf("failed to stop playback: %w", err)
			}
		}
		fmt.Println()

		return display.err
	},
}

// playbackDisplay signals when the session falls back to idle after playing.
type playbackDisplay struct {
	*terminal

	idle    chan struct{}
	playing bool
	err     error
}

func (d *playbackDisplay) SetControls(state session.ControlState) {
	switch state.Mode {
	case session.ModePlaying:
		d.playing = true
	case session.ModeIdle:
		if d.playing {
			select {
			case d.idle <- struct{}{}:
			default:
			}
		}
	}
}

func (d *playbackDisplay) ShowError(err error) {
	d.err = err
	d.terminal.ShowError(err)
}
