package event

import (
	"time"

	"github.com/bamsammich/zcopy/internal/platform"
)

// Type identifies the kind of event.
type Type int

const (
	TransferStarted Type = iota + 1
	StepCompleted
	TransferCompleted
	TransferShort
	TransferFailed
)

var typeNames = [...]string{
	TransferStarted:   "TransferStarted",
	StepCompleted:     "StepCompleted",
	TransferCompleted: "TransferCompleted",
	TransferShort:     "TransferShort",
	TransferFailed:    "TransferFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the transfer engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Method    platform.Method
	Requested int64 // bytes asked for by the driver call or step
	Moved     int64 // bytes moved so far (step: by this step)
	Error     error
}

// Emit stamps e and sends it on ch without blocking. Events are dropped when
// nobody keeps up; a nil channel disables emission.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
