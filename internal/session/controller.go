package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	tickInterval = time.Second

	DefaultProgressInterval = 50 * time.Millisecond
	DefaultProgressMaximum  = 100
)

// Options tunes a Controller. Zero values select the defaults.
type Options struct {
	ProgressInterval time.Duration
	ProgressMaximum  int
	Logger           *slog.Logger
	Observer         Observer
}

// State is a snapshot of the session owned by the controller.
type State struct {
	Mode               Mode   `json:"mode"`
	SourcePath         string `json:"source_path"`
	ElapsedSeconds     int    `json:"elapsed_seconds"`
	DurationMillis     int    `json:"duration_millis"`
	ResumeOffsetMillis int    `json:"resume_offset_millis"`
}

// Controller runs the recording/playback state machine.
//
// All session state is owned by the goroutine executing Run. The exported
// control methods hand their work to that goroutine and wait for it, and the
// elapsed ticker and progress poller post their updates the same way, so no
// field below is ever touched concurrently. Control methods must not be
// called from inside Display or Prompter callbacks.
type Controller struct {
	backend  Backend
	display  Display
	prompter Prompter
	observer Observer
	log      *slog.Logger

	progressInterval time.Duration
	progressMaximum  int

	calls chan func()
	done  chan struct{}

	mode               Mode
	handle             Handle
	sourcePath         string
	elapsedSeconds     int
	durationMillis     int
	resumeOffsetMillis int
	playStarted        time.Time

	ticker *periodic
	poller *periodic
}

// New creates a controller. Nothing happens until Run is started.
func New(backend Backend, display Display, prompter Prompter, opts Options) *Controller {
	if display == nil {
		display = NopDisplay{}
	}
	if prompter == nil {
		prompter = FixedPrompter{}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.ProgressMaximum <= 0 {
		opts.ProgressMaximum = DefaultProgressMaximum
	}

	return &Controller{
		backend:          backend,
		display:          display,
		prompter:         prompter,
		observer:         opts.Observer,
		log:              opts.Logger,
		progressInterval: opts.ProgressInterval,
		progressMaximum:  opts.ProgressMaximum,
		calls:            make(chan func()),
		done:             make(chan struct{}),
	}
}

// Run executes the controller until ctx is cancelled. On return both periodic
// signals are stopped and the backend session is closed.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.resetDisplay()
	c.display.SetStatus(StatusReady)
	c.display.SetControls(Controls(c.mode))

	notifications := c.backend.Notifications()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case call := <-c.calls:
			call()
		case n, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			c.handleNotification(n)
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Record starts a recording from Idle, pauses a running recording, or
// resumes a paused one.
func (c *Controller) Record(ctx context.Context) error {
	return c.do(ctx, func() error { return c.record() })
}

// Stop ends the current recording or playback. Stopping a recording prompts
// for a save destination; ErrUserCancelledSave is returned if none is given.
func (c *Controller) Stop(ctx context.Context) error {
	return c.do(ctx, func() error { return c.stop(ctx) })
}

// Play starts playback of the selected source, prompting for one first if
// none has been selected yet.
func (c *Controller) Play(ctx context.Context) error {
	return c.do(ctx, func() error { return c.play(ctx) })
}

// SelectSource sets the file the next Play will open.
func (c *Controller) SelectSource(ctx context.Context, path string) error {
	return c.do(ctx, func() error {
		if c.mode != ModeIdle {
			return fmt.Errorf("%w: cannot change source while %s", ErrInvalidTransition, c.mode)
		}
		c.sourcePath = path
		c.log.Debug("Playback source selected", "path", path)
		return nil
	})
}

// State returns a snapshot of the session.
func (c *Controller) State(ctx context.Context) (State, error) {
	var st State
	err := c.do(ctx, func() error {
		st = State{
			Mode:               c.mode,
			SourcePath:         c.sourcePath,
			ElapsedSeconds:     c.elapsedSeconds,
			DurationMillis:     c.durationMillis,
			ResumeOffsetMillis: c.resumeOffsetMillis,
		}
		return nil
	})
	return st, err
}

// do runs fn on the owner goroutine and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	call := func() { result <- fn() }

	select {
	case c.calls <- call:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-result
}

// post hands fn to the owner goroutine unless ctx ends first.
func (c *Controller) post(ctx context.Context, fn func()) bool {
	select {
	case c.calls <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

func (c *Controller) record() error {
	switch c.mode {
	case ModeIdle:
		c.startRecording()
	case ModeRecording:
		c.pauseRecording()
	case ModePaused:
		c.resumeRecording()
	default:
		return fmt.Errorf("%w: record while %s", ErrInvalidTransition, c.mode)
	}
	return nil
}

func (c *Controller) startRecording() {
	c.exec("close", c.backend.Close)

	c.resetDisplay()
	c.display.SetStatus(StatusRecording)

	c.open(Capture())
	c.exec("record", c.backend.Record)

	c.elapsedSeconds = 0
	c.resumeOffsetMillis = 0
	c.durationMillis = 0
	c.ticker = c.startPeriodic(0, tickInterval, c.onTick)

	c.setMode(ModeRecording)
}

func (c *Controller) pauseRecording() {
	c.ticker.stop()
	c.ticker = nil

	c.exec("pause", c.backend.Pause)
	backendElapsed := c.queryLength()

	// The counter holds the next second to display, so the difference is how
	// far the backend is from reaching it.
	c.resumeOffsetMillis = max(c.elapsedSeconds*1000-backendElapsed, 0)

	c.display.SetStatus(StatusPaused)
	c.setMode(ModePaused)

	c.log.Debug("Recording paused",
		"elapsed_seconds", c.elapsedSeconds,
		"backend_elapsed_ms", backendElapsed,
		"resume_offset_ms", c.resumeOffsetMillis)
}

func (c *Controller) resumeRecording() {
	c.exec("resume", c.backend.Resume)

	delay := time.Duration(c.resumeOffsetMillis) * time.Millisecond
	c.ticker = c.startPeriodic(delay, tickInterval, c.onTick)

	c.display.SetStatus(StatusRecording)
	c.setMode(ModeRecording)
}

func (c *Controller) stop(ctx context.Context) error {
	switch c.mode {
	case ModeIdle:
		return nil
	case ModeRecording, ModePaused:
		c.endSession()

		path, ok := c.prompter.PromptSave(ctx)
		if !ok {
			c.log.Warn("Recording not saved, backend session left open")
			c.display.ShowError(ErrUserCancelledSave)
			return ErrUserCancelledSave
		}

		c.exec("save", func() error { return c.backend.Save(path) })
		c.exec("close", c.backend.Close)
		c.sourcePath = path

		c.log.Info("Recording saved", "path", path)
		return nil
	case ModePlaying:
		c.endSession()
		c.exec("close", c.backend.Close)
		return nil
	default:
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, c.mode)
	}
}

// endSession is the part of Stop shared by recording and playback.
func (c *Controller) endSession() {
	c.stopSignals()

	c.exec("stop", c.backend.Stop)
	length := c.queryLength()

	// Replace the coarse ticker value with the backend's exact length.
	c.display.SetElapsed(FormatElapsed(int64(length)))
	c.display.SetStatus(StatusReady)

	c.setMode(ModeIdle)
}

func (c *Controller) play(ctx context.Context) error {
	if c.mode != ModeIdle {
		return fmt.Errorf("%w: play while %s", ErrInvalidTransition, c.mode)
	}

	if c.sourcePath == "" {
		path, ok := c.prompter.PromptSource(ctx)
		if !ok || path == "" {
			return ErrUserCancelledSourceSelection
		}
		c.sourcePath = path
	}

	c.exec("close", c.backend.Close)
	c.open(File(c.sourcePath))
	c.durationMillis = c.queryLength()

	c.resetDisplay()
	c.display.SetStatus(StatusPlaying)

	c.elapsedSeconds = 0
	c.ticker = c.startPeriodic(0, tickInterval, c.onTick)
	c.playStarted = time.Now()
	c.poller = c.startPeriodic(0, c.progressInterval, c.onProgress)

	c.exec("play", func() error { return c.backend.Play(true) })

	c.setMode(ModePlaying)
	c.log.Info("Playback started", "path", c.sourcePath, "duration_ms", c.durationMillis)
	return nil
}

func (c *Controller) handleNotification(n Notification) {
	c.observer.Notified(n.Kind)

	if c.mode != ModePlaying || n.Handle != c.handle {
		c.log.Debug("Ignoring stale notification", "kind", n.Kind, "handle", n.Handle, "mode", c.mode)
		return
	}

	c.stopSignals()
	c.exec("close", c.backend.Close)

	switch n.Kind {
	case NotifySuccess:
		c.display.SetProgress(c.progressMaximum, c.progressMaximum)
		c.log.Info("Playback completed", "path", c.sourcePath)
	case NotifyAborted:
		c.log.Warn("Playback aborted", "path", c.sourcePath)
		c.display.ShowError(ErrPlaybackAborted)
	default:
		c.log.Error("Playback failed", "path", c.sourcePath, "kind", n.Kind)
		c.display.ShowError(ErrPlaybackFailed)
	}

	c.display.SetStatus(StatusReady)
	c.setMode(ModeIdle)
}

func (c *Controller) shutdown() {
	c.stopSignals()
	c.exec("close", c.backend.Close)
	if c.mode != ModeIdle {
		c.setMode(ModeIdle)
	}
	c.log.Debug("Session controller stopped")
}

func (c *Controller) onTick() {
	c.display.SetElapsed(FormatElapsed(int64(c.elapsedSeconds) * 1000))
	c.elapsedSeconds++
}

func (c *Controller) onProgress() {
	elapsed := time.Since(c.playStarted)
	duration := time.Duration(c.durationMillis) * time.Millisecond
	c.display.SetProgress(Progress(elapsed, duration, c.progressMaximum), c.progressMaximum)
}

func (c *Controller) stopSignals() {
	c.ticker.stop()
	c.poller.stop()
	c.ticker = nil
	c.poller = nil
}

func (c *Controller) resetDisplay() {
	c.display.SetProgress(0, c.progressMaximum)
	c.display.SetElapsed(FormatElapsed(0))
}

func (c *Controller) setMode(m Mode) {
	from := c.mode
	c.mode = m
	c.display.SetControls(Controls(m))
	c.observer.Transition(from, m)
	c.log.Debug("Session mode changed", "from", from, "to", m)
}

func (c *Controller) open(desc Descriptor) {
	h, err := c.backend.Open(desc)
	if err != nil {
		c.commandFailed("open", err)
	}
	c.handle = h
}

// exec issues a backend command. Failures are reported but not acted on.
func (c *Controller) exec(command string, fn func() error) {
	if err := fn(); err != nil {
		c.commandFailed(command, err)
	}
}

func (c *Controller) queryLength() int {
	n, err := c.backend.LengthMillis()
	if err != nil {
		c.commandFailed("status length", err)
		return 0
	}
	return n
}

func (c *Controller) commandFailed(command string, err error) {
	err = fmt.Errorf("%w: %s: %w", ErrBackendCommandFailed, command, err)
	c.log.Warn("Backend command failed", "command", command, "error", err)
	c.observer.CommandFailed(command)
}
