package domain

import "errors"

var (
	ErrInvalidDefinition  = errors.New("invalid geofence definition")
	ErrMalformedEntry     = errors.New("malformed geofence entry")
	ErrMalformedBroadcast = errors.New("malformed transition broadcast")
	ErrPermissionDenied   = errors.New("location permission denied")
	ErrPlatform           = errors.New("geofencing platform failure")
)

type FaultKind string

const (
	FaultDecode     FaultKind = "decode"
	FaultPermission FaultKind = "permission"
	FaultPlatform   FaultKind = "platform"
	FaultStore      FaultKind = "store"
	FaultDelivery   FaultKind = "delivery"
)

type Operation string

const (
	OpRegister   Operation = "register"
	OpUnregister Operation = "unregister"
	OpReceive    Operation = "receive"
	OpNotify     Operation = "notify"
)

// Fault is the terminal record of a failure inside the pipeline. Faults
// are reported, never returned to the caller.
type Fault struct {
	Kind       FaultKind
	Op         Operation
	Identifier string
	Err        error
}

func (f Fault) Error() string {
	if f.Identifier == "" {
		return string(f.Op) + ": " + string(f.Kind) + ": " + f.Err.Error()
	}
	return string(f.Op) + " " + f.Identifier + ": " + string(f.Kind) + ": " + f.Err.Error()
}

func (f Fault) Unwrap() error { return f.Err }

// ClassifyPlatformError maps an error raised by the geofencing platform to
// its fault kind.
func ClassifyPlatformError(err error) FaultKind {
	if errors.Is(err, ErrPermissionDenied) {
		return FaultPermission
	}
	return FaultPlatform
}

// Outcome is handed to registration continuations once the platform (and,
// on success, the store) has settled.
type Outcome struct {
	Op         Operation
	Identifier string
	Err        error
}

func (o Outcome) Succeeded() bool { return o.Err == nil }
