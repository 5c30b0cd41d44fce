package domain

import "time"

// PollState is the poller's position in its Idle -> Polling -> Idle cycle
type PollState uint32

const (
	Idle PollState = iota
	Polling
)

func (s PollState) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler
func (s PollState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PollerStatus is a snapshot of the poller
type PollerStatus struct {
	State     PollState `json:"state"`
	Loops     int64     `json:"loops"`
	Rounds    int64     `json:"rounds"`
	LastExit  time.Time `json:"last_exit,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}
