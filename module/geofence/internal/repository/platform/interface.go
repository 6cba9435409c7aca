package platform

import "github.com/nandanugg/geofence-bridge/module/geofence/domain"

// GeofencingClient submits requests to the geofencing platform. Both calls
// return immediately; done runs exactly once, on a platform goroutine,
// when the platform acknowledges. A non-nil return means the request was
// rejected before submission and done will not run.
type GeofencingClient interface {
	AddGeofences(req domain.GeofencingRequest, done func(error)) error
	RemoveGeofences(identifiers []string, done func(error)) error
}
