package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nevet/basic-MCI-Recorder/internal/audio"
	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

// runningSession is a controller running on the configured audio backend.
type runningSession struct {
	*session.Controller

	device *audio.Device
	cancel context.CancelFunc
}

// startSession opens the audio backend and starts a controller on it.
// A nil observer disables metrics.
func startSession(ctx context.Context, display session.Display, prompter session.Prompter, observer session.Observer) (*runningSession, error) {
	device, err := audio.NewBackend(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open audio backend: %w", err)
	}

	controller := session.New(device, display, prompter, session.Options{
		ProgressInterval: cfg.Display.ProgressInterval,
		ProgressMaximum:  cfg.Display.ProgressMaximum,
		Logger:           slog.Default(),
		Observer:         observer,
	})

	runCtx, cancel := context.WithCancel(ctx)
	go controller.Run(runCtx)

	return &runningSession{Controller: controller, device: device, cancel: cancel}, nil
}

// Close stops the controller, which closes any open backend session, then
// releases the audio device.
func (s *runningSession) Close() {
	s.cancel()
	<-s.Done()
	s.device.Shutdown()
}
