package session

import (
	"context"
	"log/slog"
)

// Display receives everything the controller wants shown. All calls are
// made from the controller's owner goroutine.
type Display interface {
	SetElapsed(text string)
	SetProgress(value, maximum int)
	SetStatus(text string)
	SetControls(state ControlState)
	ShowError(err error)
}

// Prompter asks the user for file locations. A false result means the user
// cancelled. Prompts run on the owner goroutine and may block until ctx ends.
type Prompter interface {
	PromptSource(ctx context.Context) (string, bool)
	PromptSave(ctx context.Context) (string, bool)
}

// Observer is told about controller activity, e.g. for metrics.
type Observer interface {
	Transition(from, to Mode)
	CommandFailed(command string)
	Notified(kind NotifyKind)
}

// NopDisplay discards all output.
type NopDisplay struct{}

func (NopDisplay) SetElapsed(string) {}
func (NopDisplay) SetProgress(int, int) {}
func (NopDisplay) SetStatus(string) {}
func (NopDisplay) SetControls(ControlState) {}
func (NopDisplay) ShowError(err error) { slog.Debug("Session error", "error", err) }

// FixedPrompter answers every prompt with preset paths. An empty path cancels.
type FixedPrompter struct {
	Source string
	Save   string
}

func (p FixedPrompter) PromptSource(context.Context) (string, bool) {
	return p.Source, p.Source != ""
}

func (p FixedPrompter) PromptSave(context.Context) (string, bool) {
	return p.Save, p.Save != ""
}

type nopObserver struct{}

func (nopObserver) Transition(Mode, Mode) {}
func (nopObserver) CommandFailed(string) {}
func (nopObserver) Notified(NotifyKind) {}
