package audio

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes an audio endpoint reported by miniaudio.
type DeviceInfo struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`

	id malgo.DeviceID
}

type Devices struct {
	Capture  []DeviceInfo `json:"capture"`
	Playback []DeviceInfo `json:"playback"`
}

// ListDevices enumerates capture and playback devices.
func ListDevices(log *slog.Logger) (Devices, error) {
	if log == nil {
		log = slog.Default()
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return Devices{}, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	captureDevs, err := listDevices(malgoCtx, malgo.Capture, log)
	if err != nil {
		return Devices{}, err
	}
	playbackDevs, err := listDevices(malgoCtx, malgo.Playback, log)
	if err != nil {
		return Devices{}, err
	}

	return Devices{Capture: captureDevs, Playback: playbackDevs}, nil
}

func listDevices(malgoCtx *malgo.AllocatedContext, kind malgo.DeviceType, log *slog.Logger) ([]DeviceInfo, error) {
	devices, err := malgoCtx.Devices(kind)
	if err != nil {
		return nil, err
	}

	res := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		full, err := malgoCtx.DeviceInfo(kind, dev.ID, malgo.Shared)
		if err != nil {
			log.Warn("Unable to get audio device info", "device", dev.Name(), "error", err)
			continue
		}

		res = append(res, DeviceInfo{
			Name:      full.Name(),
			IsDefault: full.IsDefault == 1,
			id:        full.ID,
		})
	}

	return res, nil
}

// matchDevice finds the device called name. An exact match wins; otherwise a
// single case-insensitive substring match is accepted.
func matchDevice(name string, devices []DeviceInfo) (DeviceInfo, error) {
	for _, dev := range devices {
		if dev.Name == name {
			return dev, nil
		}
	}

	var matches []DeviceInfo
	needle := strings.ToLower(name)
	for _, dev := range devices {
		if strings.Contains(strings.ToLower(dev.Name), needle) {
			matches = append(matches, dev)
		}
	}

	switch len(matches) {
	case 0:
		return DeviceInfo{}, fmt.Errorf("audio device not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return DeviceInfo{}, fmt.Errorf("ambiguous audio device '%s' matches: %s", name, strings.Join(names, ", "))
	}
}
