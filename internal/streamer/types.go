package streamer

import (
	"errors"
	"fmt"
)

// State tracks the session lifecycle. Failed is entered from any state on
// an unrecoverable protocol error.
type State int32

const (
	Disconnected State = iota
	Connecting
	LoggedIn
	Subscribed
	Listening
	Closing
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case LoggedIn:
		return "logged in"
	case Subscribed:
		return "subscribed"
	case Listening:
		return "listening"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var ErrNotLoggedIn = errors.New("streamer: not logged in")

// LoginError is a LOGIN frame rejected by the server. Fatal to the session.
type LoginError struct {
	Code int
	Msg  string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("streamer: login rejected: code %d: %s", e.Code, e.Msg)
}

// Outbound envelope. Every request carries the session's customer and
// correlation ids; requestid is a session-monotonic sequence number the
// server correlates responses by.
type request struct {
	RequestID  string            `json:"requestid"`
	Service    string            `json:"service"`
	Command    string            `json:"command"`
	CustomerID string            `json:"SchwabClientCustomerId"`
	CorrelID   string            `json:"SchwabClientCorrelId"`
	Parameters map[string]string `json:"parameters"`
}

type envelope struct {
	Requests []request `json:"requests"`
}
