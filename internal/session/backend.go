package session

// Handle identifies one backend session. Notifications carry the handle of
// the session that produced them so late arrivals can be told apart.
type Handle uint64

// Descriptor names what a backend session is opened on.
// An empty Path opens a new capture target.
type Descriptor struct {
	Path string
}

// Capture returns a descriptor for a new recording target.
func Capture() Descriptor {
	return Descriptor{}
}

// File returns a descriptor for playing back the file at path.
func File(path string) Descriptor {
	return Descriptor{Path: path}
}

// IsCapture reports whether d describes a recording target.
func (d Descriptor) IsCapture() bool {
	return d.Path == ""
}

// NotifyKind is the outcome reported by an asynchronous play request.
type NotifyKind int

const (
	NotifySuccess NotifyKind = iota + 1
	NotifyAborted
	NotifyFailure
)

func (k NotifyKind) String() string {
	switch k {
	case NotifySuccess:
		return "success"
	case NotifyAborted:
		return "aborted"
	case NotifyFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Notification is delivered out of band when playback ends.
type Notification struct {
	Handle Handle
	Kind   NotifyKind
}

// Backend is the multimedia subsystem the controller drives. Every method
// acts on the single currently open session.
type Backend interface {
	Open(desc Descriptor) (Handle, error)
	Record() error
	Stop() error
	Pause() error
	Resume() error

	// Play starts playback and returns immediately. When notify is set the
	// outcome is later delivered on Notifications.
	Play(notify bool) error

	// LengthMillis is the length of the open session; while capturing it is
	// the amount recorded so far.
	LengthMillis() (int, error)

	Save(path string) error
	Close() error

	Notifications() <-chan Notification
}
