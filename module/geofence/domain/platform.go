package domain

import (
	"errors"
	"fmt"
)

// NeverExpire marks a region the platform keeps until it is removed.
const NeverExpire int64 = -1

type InitialTrigger int

const (
	InitialTriggerNone  InitialTrigger = 0
	InitialTriggerEnter InitialTrigger = 1
)

// CircularRegion is a single region inside a geofencing request.
type CircularRegion struct {
	RequestID        string           `json:"requestId"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	RadiusMeters     float64          `json:"radius"`
	Transitions      []TransitionType `json:"transitionTypes"`
	ExpirationMillis int64            `json:"expirationMillis"`
}

type GeofencingRequest struct {
	InitialTrigger InitialTrigger   `json:"initialTrigger"`
	Regions        []CircularRegion `json:"regions"`
}

// NewGeofencingRequest monitors ENTER and EXIT forever and fires ENTER
// immediately when the device is already inside the region.
func NewGeofencingRequest(def GeofenceDefinition) GeofencingRequest {
	return GeofencingRequest{
		InitialTrigger: InitialTriggerEnter,
		Regions: []CircularRegion{{
			RequestID:        def.Identifier,
			Latitude:         def.Latitude,
			Longitude:        def.Longitude,
			RadiusMeters:     def.RadiusMeters,
			Transitions:      []TransitionType{TransitionEnter, TransitionExit},
			ExpirationMillis: NeverExpire,
		}},
	}
}

type CommandOp string

const (
	CommandAdd    CommandOp = "add"
	CommandRemove CommandOp = "remove"
)

// PlatformCommand travels on the requests topic.
type PlatformCommand struct {
	RequestID   string             `json:"requestId"`
	Op          CommandOp          `json:"op"`
	Request     *GeofencingRequest `json:"request,omitempty"`
	Identifiers []string           `json:"identifiers,omitempty"`
}

type AckStatus string

const (
	AckOK               AckStatus = "ok"
	AckError            AckStatus = "error"
	AckPermissionDenied AckStatus = "permission_denied"
)

// PlatformAck resolves the command with the same RequestID.
type PlatformAck struct {
	RequestID string    `json:"requestId"`
	Status    AckStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
}

func (a PlatformAck) Err() error {
	switch a.Status {
	case AckOK:
		return nil
	case AckPermissionDenied:
		return wrapAck(ErrPermissionDenied, a.Message)
	default:
		return wrapAck(ErrPlatform, a.Message)
	}
}

func wrapAck(base error, msg string) error {
	if msg == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, msg)
}

// AckFor builds the acknowledgment of a command from the platform's result.
func AckFor(requestID string, err error) PlatformAck {
	switch {
	case err == nil:
		return PlatformAck{RequestID: requestID, Status: AckOK}
	case errors.Is(err, ErrPermissionDenied):
		return PlatformAck{RequestID: requestID, Status: AckPermissionDenied, Message: err.Error()}
	default:
		return PlatformAck{RequestID: requestID, Status: AckError, Message: err.Error()}
	}
}

// Topics names the MQTT topics shared by the platform and the bridge.
type Topics struct {
	Requests    string
	Acks        string
	Transitions string
}

func NewTopics(prefix string) Topics {
	return Topics{
		Requests:    prefix + "/requests",
		Acks:        prefix + "/acks",
		Transitions: prefix + "/transitions",
	}
}
