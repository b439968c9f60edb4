package session

import "fmt"

// Mode is the activity the controller is currently driving.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRecording
	ModePaused
	ModePlaying
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeRecording:
		return "RECORDING"
	case ModePaused:
		return "PAUSED"
	case ModePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range []Mode{ModeIdle, ModeRecording, ModePaused, ModePlaying} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Status label texts shown by front ends.
const (
	StatusReady     = "Ready."
	StatusRecording = "Recording..."
	StatusPaused    = "Paused."
	StatusPlaying   = "Play Back..."
)

// ControlState describes how the Record/Stop/Play controls should look.
type ControlState struct {
	Mode          Mode   `json:"mode"`
	RecordLabel   string `json:"record_label"`
	RecordEnabled bool   `json:"record_enabled"`
	StopEnabled   bool   `json:"stop_enabled"`
	PlayEnabled   bool   `json:"play_enabled"`
}

// Controls returns the control state for a mode. It depends on nothing else.
func Controls(m Mode) ControlState {
	switch m {
	case ModeRecording:
		return ControlState{Mode: m, RecordLabel: "Pause", RecordEnabled: true, StopEnabled: true}
	case ModePaused:
		return ControlState{Mode: m, RecordLabel: "Resume", RecordEnabled: true, StopEnabled: true}
	case ModePlaying:
		return ControlState{Mode: m, RecordLabel: "Record", StopEnabled: true}
	default:
		return ControlState{Mode: ModeIdle, RecordLabel: "Record", RecordEnabled: true, PlayEnabled: true}
	}
}
