package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// clipBitDepth is the sample format used for capture, playback and saved files.
const clipBitDepth = 16

// Clip holds interleaved signed 16-bit PCM with a read cursor for playback.
// It is not safe for concurrent use.
type Clip struct {
	SampleRate int
	Channels   int

	data []int16
	pos  int
}

func NewClip(sampleRate, channels int) *Clip {
	return &Clip{SampleRate: sampleRate, Channels: channels}
}

// AppendS16LE appends little-endian S16 samples. A trailing odd byte is dropped.
func (c *Clip) AppendS16LE(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		c.data = append(c.data, int16(binary.LittleEndian.Uint16(b[i:])))
	}
}

// ReadS16LE copies samples from the cursor into dst and returns the number
// of bytes written.
func (c *Clip) ReadS16LE(dst []byte) int {
	n := 0
	for n+1 < len(dst) && c.pos < len(c.data) {
		binary.LittleEndian.PutUint16(dst[n:], uint16(c.data[c.pos]))
		c.pos++
		n += 2
	}
	return n
}

func (c *Clip) Rewind() {
	c.pos = 0
}

// Drained reports whether the cursor reached the end of the clip.
func (c *Clip) Drained() bool {
	return c.pos >= len(c.data)
}

func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.data) / c.Channels
}

// Millis is the clip length in milliseconds, rounded down.
func (c *Clip) Millis() int {
	if c.SampleRate <= 0 {
		return 0
	}
	return int(int64(c.Frames()) * 1000 / int64(c.SampleRate))
}

// WriteWAV encodes the clip as a 16-bit PCM WAV file.
func (c *Clip) WriteWAV(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, c.SampleRate, clipBitDepth, c.Channels, 1)

	data := make([]int, len(c.data))
	for i, s := range c.data {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: c.SampleRate, NumChannels: c.Channels},
		SourceBitDepth: clipBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("error encoding WAV: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("error finalizing WAV: %w", err)
	}
	return nil
}

// SaveWAV writes the clip to path, creating parent directories as needed.
func (c *Clip) SaveWAV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := c.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadWAV reads a PCM WAV file into a clip.
func LoadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// DecodeWAV decodes PCM WAV data of 8, 16, 24 or 32 bits into a 16-bit clip.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file format")
	}

	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return nil, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}

	shift := 0
	switch decoder.BitDepth {
	case 8, 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("error reading PCM data: %w", err)
	}

	clip := NewClip(int(decoder.SampleRate), int(decoder.NumChans))
	clip.data = make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		if decoder.BitDepth == 8 {
			// 8-bit WAV samples are unsigned
			clip.data[i] = int16((s - 128) << 8)
			continue
		}
		clip.data[i] = int16(s >> shift)
	}

	return clip, nil
}
