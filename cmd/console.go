package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nevet/basic-MCI-Recorder/internal/library"
	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

const consoleHelp = `Commands:
  r         record, pause or resume
  s         stop (a recording asks for a file name)
  p         play the selected file (asks for one if none is selected)
  o <file>  select the file to play
  q         quit`

// terminal is a session.Display and session.Prompter on a line based
// console. Prompts read from the same line stream as the command loop,
// which is blocked in the control call while a prompt is pending.
type terminal struct {
	mu  sync.Mutex
	out io.Writer

	lines <-chan string
	dir   string
	now   func() time.Time

	elapsed  string
	progress string
}

func newTerminal(out io.Writer, lines <-chan string, dir string) *terminal {
	return &terminal{
		out:     out,
		lines:   lines,
		dir:     dir,
		now:     time.Now,
		elapsed: session.FormatElapsed(0),
	}
}

func (t *terminal) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) render() {
	t.printf("\r%s %s", t.elapsed, t.progress)
}

func (t *terminal) SetElapsed(text string) {
	t.elapsed = text
	t.render()
}

func (t *terminal) SetProgress(value, maximum int) {
	if maximum <= 0 {
		t.progress = ""
		return
	}
	const width = 20
	filled := value * width / maximum
	t.progress = fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("#", filled), strings.Repeat("-", width-filled), value*100/maximum)
	t.render()
}

func (t *terminal) SetStatus(text string) {
	t.printf("\n%s\n", text)
}

func (t *terminal) SetControls(state session.ControlState) {
	var keys []string
	if state.RecordEnabled {
		keys = append(keys, "[r] "+state.RecordLabel)
	}
	if state.StopEnabled {
		keys = append(keys, "[s] Stop")
	}
	if state.PlayEnabled {
		keys = append(keys, "[p] Play")
	}
	t.printf("%s\n", strings.Join(keys, "  "))
}

func (t *terminal) ShowError(err error) {
	t.printf("\nerror: %v\n", err)
}

// PromptSave asks for a recording name. The recording is saved in the
// output directory; an empty answer cancels.
func (t *terminal) PromptSave(ctx context.Context) (string, bool) {
	name, ok := t.ask(ctx, "Save as (empty to cancel): ")
	if !ok {
		return "", false
	}
	return library.NewRecordingPath(t.dir, name, t.now()), true
}

// PromptSource asks for the file to play, by path or by recording name.
func (t *terminal) PromptSource(ctx context.Context) (string, bool) {
	name, ok := t.ask(ctx, "Open file (empty to cancel): ")
	if !ok {
		return "", false
	}
	path, err := library.Resolve(t.dir, name)
	if err != nil {
		t.ShowError(err)
		return "", false
	}
	return path, true
}

func (t *terminal) ask(ctx context.Context, question string) (string, bool) {
	t.printf("\n%s", question)
	select {
	case line, ok := <-t.lines:
		line = strings.TrimSpace(line)
		return line, ok && line != ""
	case <-ctx.Done():
		return "", false
	}
}

// readLines feeds the lines of r to a channel that is closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// commandSession is what the console loop drives.
type commandSession interface {
	Record(ctx context.Context) error
	Stop(ctx context.Context) error
	Play(ctx context.Context) error
	SelectSource(ctx context.Context, path string) error
}

// runConsole runs the interactive recorder until "q", EOF or Ctrl+C.
func runConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines := readLines(in)
	term := newTerminal(out, lines, cfg.Output.Directory)

	sess, err := startSession(ctx, term, term, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Fprintln(out, consoleHelp)
	return consoleLoop(ctx, sess, term, lines)
}

func consoleLoop(ctx context.Context, sess commandSession, term *terminal, lines <-chan string) error {
	for {
		var line string
		select {
		case <-ctx.Done():
			// Stopping a recording would prompt on a console that is going away
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		command, arg, _ := strings.Cut(line, " ")
		var err error
		switch command {
		case "":
			continue
		case "r":
			err = sess.Record(ctx)
		case "s":
			err = sess.Stop(ctx)
		case "p":
			err = sess.Play(ctx)
		case "o":
			var path string
			path, err = library.Resolve(term.dir, arg)
			if err == nil {
				err = sess.SelectSource(ctx, path)
			}
		case "q":
			return nil
		default:
			term.printf("%s\n", consoleHelp)
			continue
		}

		// The session already shows cancelled prompts and playback errors
		if err != nil && !errors.Is(err, session.ErrUserCancelledSave) {
			term.ShowError(err)
		}
	}
}
