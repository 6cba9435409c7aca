package domain

import (
	"encoding/json"
	"fmt"
)

// TransitionType uses the platform's numeric transition codes.
type TransitionType int

const (
	TransitionEnter TransitionType = 1
	TransitionExit  TransitionType = 2
	TransitionDwell TransitionType = 4
)

func (t TransitionType) String() string {
	switch t {
	case TransitionEnter:
		return "enter"
	case TransitionExit:
		return "exit"
	case TransitionDwell:
		return "dwell"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Monitored reports whether the transition is one the pipeline forwards.
func (t TransitionType) Monitored() bool {
	return t == TransitionEnter || t == TransitionExit
}

// TransitionBroadcast is the decoded platform broadcast.
type TransitionBroadcast struct {
	ErrorCode           *int           `json:"errorCode,omitempty"`
	TransitionType      TransitionType `json:"transitionType"`
	TriggeringRegionIDs []string       `json:"triggeringRegionIds,omitempty"`
	TriggeringLocation  *LocationFix   `json:"triggeringLocation,omitempty"`
}

func DecodeBroadcast(payload []byte) (*TransitionBroadcast, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedBroadcast)
	}
	var b TransitionBroadcast
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBroadcast, err)
	}
	return &b, nil
}

const MethodGeofenceEvent = "geofenceEvent"

type TransitionEvent struct {
	Identifier string
	Type       TransitionType
	Location   LocationFix
}

// EventArgs is the payload of a geofenceEvent listener message.
type EventArgs struct {
	Identifier string        `json:"identifier"`
	EventType  string        `json:"eventType"`
	Location   EventLocation `json:"location"`
}

func (e TransitionEvent) Args() EventArgs {
	return EventArgs{
		Identifier: e.Identifier,
		EventType:  e.Type.String(),
		Location:   e.Location.EventLocation(),
	}
}

// ListenerMessage is what a listener channel receives.
type ListenerMessage struct {
	Method string `json:"method"`
	Args   any    `json:"args"`
}
