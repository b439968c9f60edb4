package server

import (
	"sync"

	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

// Snapshot is everything the session last asked to be displayed.
type Snapshot struct {
	Mode            session.Mode         `json:"mode"`
	Status          string               `json:"status"`
	Elapsed         string               `json:"elapsed"`
	Progress        int                  `json:"progress"`
	ProgressMaximum int                  `json:"progress_maximum"`
	Controls        session.ControlState `json:"controls"`
	LastError       string               `json:"last_error,omitempty"`
}

// WebDisplay is a session.Display that keeps the latest snapshot and pushes
// it to subscribers. Slow subscribers only ever see the newest snapshot.
type WebDisplay struct {
	mu          sync.Mutex
	snapshot    Snapshot
	subscribers map[chan Snapshot]struct{}
}

func NewWebDisplay() *WebDisplay {
	return &WebDisplay{
		snapshot: Snapshot{
			Status:   session.StatusReady,
			Elapsed:  session.FormatElapsed(0),
			Controls: session.Controls(session.ModeIdle),
		},
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

func (d *WebDisplay) SetElapsed(text string) {
	d.update(func(s *Snapshot) { s.Elapsed = text })
}

func (d *WebDisplay) SetProgress(value, maximum int) {
	d.update(func(s *Snapshot) {
		s.Progress = value
		s.ProgressMaximum = maximum
	})
}

func (d *WebDisplay) SetStatus(text string) {
	d.update(func(s *Snapshot) { s.Status = text })
}

func (d *WebDisplay) SetControls(state session.ControlState) {
	d.update(func(s *Snapshot) {
		s.Controls = state
		s.Mode = state.Mode
		if state.Mode != session.ModeIdle {
			s.LastError = ""
		}
	})
}

func (d *WebDisplay) ShowError(err error) {
	d.update(func(s *Snapshot) { s.LastError = err.Error() })
}

// Snapshot returns the current display state.
func (d *WebDisplay) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// Subscribe returns a channel that receives the current snapshot and every
// later change. The returned function unsubscribes.
func (d *WebDisplay) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	ch <- d.snapshot
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, ch)
			d.mu.Unlock()
		})
	}
}

func (d *WebDisplay) update(fn func(*Snapshot)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn(&d.snapshot)
	for ch := range d.subscribers {
		// Replace an unread snapshot with the newer one
		select {
		case <-ch:
		default:
		}
		ch <- d.snapshot
	}
}
