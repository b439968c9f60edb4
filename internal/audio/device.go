package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/nevet/basic-MCI-Recorder/internal/config"
	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

var (
	ErrNoSession   = errors.New("no open session")
	ErrNotCapture  = errors.New("session is not a capture session")
	ErrNotPlayable = errors.New("capture sessions cannot be played")
)

// periodSizeMS is the miniaudio callback period.
const periodSizeMS = 20

// stream is the part of a miniaudio device the session uses.
type stream interface {
	Start() error
	Stop() error
	Uninit()
}

// Device is a session.Backend on top of miniaudio. One capture or playback
// session is open at a time.
type Device struct {
	cfg       config.AudioConfig
	log       *slog.Logger
	malgoCtx  *malgo.AllocatedContext
	captureID *malgo.DeviceID
	newStream func(capture bool, clip *Clip) (stream, error)

	ctl     sync.Mutex
	dev     stream
	handle  session.Handle
	capture bool

	// Shared with the audio callbacks
	mu       sync.Mutex
	clip     *Clip
	active   session.Handle
	playing  bool
	notify   bool
	reported bool

	notes chan session.Notification
}

// NewDevice initializes a miniaudio context. Shutdown releases it.
func NewDevice(cfg config.AudioConfig, log *slog.Logger) (*Device, error) {
	if log == nil {
		log = slog.Default()
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	d := newDevice(cfg, log)
	d.malgoCtx = malgoCtx
	d.newStream = d.initStream

	if cfg.Device != "" {
		devices, err := listDevices(malgoCtx, malgo.Capture, log)
		if err != nil {
			d.Shutdown()
			return nil, fmt.Errorf("failed to list capture devices: %w", err)
		}
		info, err := matchDevice(cfg.Device, devices)
		if err != nil {
			d.Shutdown()
			return nil, err
		}
		id := info.id
		d.captureID = &id
		log.Info("Using capture device", "name", info.Name)
	}

	return d, nil
}

func newDevice(cfg config.AudioConfig, log *slog.Logger) *Device {
	return &Device{
		cfg:   cfg,
		log:   log,
		notes: make(chan session.Notification, 4),
	}
}

func (d *Device) Open(desc session.Descriptor) (session.Handle, error) {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.closeLocked()
	d.handle++

	// A failed open still becomes the active session, so a later Play can
	// report Failure against the handle returned here.
	d.mu.Lock()
	d.active = d.handle
	d.mu.Unlock()

	var clip *Clip
	if desc.IsCapture() {
		clip = NewClip(d.cfg.SampleRate, d.cfg.Channels)
	} else {
		var err error
		clip, err = LoadWAV(desc.Path)
		if err != nil {
			return d.handle, fmt.Errorf("open: %w", err)
		}
	}

	dev, err := d.newStream(desc.IsCapture(), clip)
	if err != nil {
		return d.handle, fmt.Errorf("open: failed to initialize device: %w", err)
	}

	d.mu.Lock()
	d.clip = clip
	d.active = d.handle
	d.playing = false
	d.reported = false
	d.mu.Unlock()

	d.dev = dev
	d.capture = desc.IsCapture()

	d.log.Debug("Audio session opened",
		"handle", d.handle,
		"capture", d.capture,
		"path", desc.Path,
		"sample_rate", clip.SampleRate,
		"channels", clip.Channels)
	return d.handle, nil
}

func (d *Device) Record() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.dev == nil {
		return ErrNoSession
	}
	if !d.capture {
		return ErrNotCapture
	}
	return d.dev.Start()
}

func (d *Device) Pause() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.dev == nil {
		return ErrNoSession
	}
	return d.dev.Stop()
}

func (d *Device) Resume() error {
	return d.Record()
}

// Stop halts the device. Stopping a notifying playback before it drained
// reports Aborted.
func (d *Device) Stop() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.dev == nil {
		return ErrNoSession
	}

	d.mu.Lock()
	aborted := d.playing && d.notify && !d.reported
	d.playing = false
	if aborted {
		d.reported = true
	}
	handle := d.active
	d.mu.Unlock()

	err := d.dev.Stop()
	if aborted {
		d.emit(handle, session.NotifyAborted)
	}
	return err
}

// Play starts playback from the beginning of the opened file. A notifying
// play that cannot start reports Failure.
func (d *Device) Play(notify bool) error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.dev == nil {
		d.mu.Lock()
		handle := d.active
		d.mu.Unlock()

		if notify && handle != 0 {
			d.emit(handle, session.NotifyFailure)
		}
		return ErrNoSession
	}
	if d.capture {
		return ErrNotPlayable
	}

	d.mu.Lock()
	d.clip.Rewind()
	d.playing = true
	d.notify = notify
	d.reported = false
	handle := d.active
	d.mu.Unlock()

	if err := d.dev.Start(); err != nil {
		d.mu.Lock()
		d.playing = false
		d.reported = true
		d.mu.Unlock()

		if notify {
			d.emit(handle, session.NotifyFailure)
		}
		return err
	}
	return nil
}

// LengthMillis is the recorded length while capturing and the file length
// while playing.
func (d *Device) LengthMillis() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.clip == nil {
		return 0, ErrNoSession
	}
	return d.clip.Millis(), nil
}

func (d *Device) Save(path string) error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.clip == nil {
		return ErrNoSession
	}
	if err := d.clip.SaveWAV(path); err != nil {
		return err
	}

	d.log.Debug("Audio session saved", "path", path, "length_ms", d.clip.Millis())
	return nil
}

// Close releases the open session. Closing with nothing open is a no-op.
func (d *Device) Close() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.closeLocked()
	return nil
}

func (d *Device) closeLocked() {
	if d.dev == nil {
		return
	}

	// Uninit waits for the callback, so mu must not be held here
	d.dev.Uninit()
	d.dev = nil

	d.mu.Lock()
	d.clip = nil
	d.playing = false
	d.mu.Unlock()

	d.log.Debug("Audio session closed", "handle", d.handle)
}

func (d *Device) Notifications() <-chan session.Notification {
	return d.notes
}

// Shutdown closes any open session and releases the miniaudio context.
func (d *Device) Shutdown() {
	d.Close()

	if d.malgoCtx != nil {
		if err := d.malgoCtx.Uninit(); err != nil {
			d.log.Warn("Failed to uninitialize audio context", "error", err)
		}
		d.malgoCtx.Free()
		d.malgoCtx = nil
	}
}

// emit never blocks: the audio callback must not wait on the controller.
func (d *Device) emit(handle session.Handle, kind session.NotifyKind) {
	select {
	case d.notes <- session.Notification{Handle: handle, Kind: kind}:
	default:
		d.log.Warn("Dropping audio notification", "handle", handle, "kind", kind)
	}
}

// onCapture is the miniaudio capture callback.
func (d *Device) onCapture(in []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.clip != nil {
		d.clip.AppendS16LE(in)
	}
}

// onPlayback is the miniaudio playback callback.
func (d *Device) onPlayback(out []byte) {
	d.mu.Lock()
	n := 0
	if d.playing && d.clip != nil {
		n = d.clip.ReadS16LE(out)
	}
	clear(out[n:])

	completed := false
	if d.playing && d.clip != nil && d.clip.Drained() && !d.reported {
		d.reported = true
		d.playing = false
		completed = d.notify
	}
	handle := d.active
	d.mu.Unlock()

	if completed {
		d.emit(handle, session.NotifySuccess)
	}
}

func (d *Device) initStream(capture bool, clip *Clip) (stream, error) {
	kind := malgo.Playback
	if capture {
		kind = malgo.Capture
	}

	deviceConfig := malgo.DefaultDeviceConfig(kind)
	deviceConfig.SampleRate = uint32(clip.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = periodSizeMS
	deviceConfig.Alsa.NoMMap = 1

	var callbacks malgo.DeviceCallbacks
	if capture {
		deviceConfig.Capture.Format = malgo.FormatS16
		deviceConfig.Capture.Channels = uint32(clip.Channels)
		if d.captureID != nil {
			deviceConfig.Capture.DeviceID = d.captureID.Pointer()
		}
		callbacks.Data = func(_, in []byte, _ uint32) { d.onCapture(in) }
	} else {
		deviceConfig.Playback.Format = malgo.FormatS16
		deviceConfig.Playback.Channels = uint32(clip.Channels)
		callbacks.Data = func(out, _ []byte, _ uint32) { d.onPlayback(out) }
	}

	dev, err := malgo.InitDevice(d.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
