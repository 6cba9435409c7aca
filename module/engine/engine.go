package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

const earthRadiusMeters = 6371000

var errEmptyRequest = errors.New("geofencing request has no regions")

type region struct {
	domain.CircularRegion
	expiresAt time.Time
}

func (r region) monitors(t domain.TransitionType) bool {
	for _, m := range r.Transitions {
		if m == t {
			return true
		}
	}
	return false
}

func (r region) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

// Engine is an in-memory geofencing platform. It tracks which regions
// contain the last observed fix and emits a broadcast whenever that
// changes.
type Engine struct {
	mu               sync.Mutex
	regions          map[string]region
	inside           map[string]bool
	last             *domain.LocationFix
	permissionDenied bool
	now              func() time.Time
}

func New() *Engine {
	return &Engine{
		regions: make(map[string]region),
		inside:  make(map[string]bool),
		now:     time.Now,
	}
}

// SetPermissionDenied makes every later add command fail the way a device
// without background location access would.
func (e *Engine) SetPermissionDenied(denied bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.permissionDenied = denied
}

// Apply executes a command and returns its ack together with any
// broadcasts caused by the initial trigger.
func (e *Engine) Apply(cmd domain.PlatformCommand) (domain.PlatformAck, []domain.TransitionBroadcast) {
	switch cmd.Op {
	case domain.CommandAdd:
		broadcasts, err := e.add(cmd.Request)
		return domain.AckFor(cmd.RequestID, err), broadcasts
	case domain.CommandRemove:
		e.remove(cmd.Identifiers)
		return domain.AckFor(cmd.RequestID, nil), nil
	default:
		return domain.AckFor(cmd.RequestID, fmt.Errorf("unknown op %q", cmd.Op)), nil
	}
}

func (e *Engine) add(req *domain.GeofencingRequest) ([]domain.TransitionBroadcast, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.permissionDenied {
		return nil, fmt.Errorf("%w: background location access not granted", domain.ErrPermissionDenied)
	}
	if req == nil || len(req.Regions) == 0 {
		return nil, errEmptyRequest
	}
	for _, r := range req.Regions {
		if r.RequestID == "" || r.RadiusMeters <= 0 {
			return nil, fmt.Errorf("invalid region %q", r.RequestID)
		}
	}

	now := e.now()
	var entered []string
	for _, r := range req.Regions {
		stored := region{CircularRegion: r}
		if r.ExpirationMillis != domain.NeverExpire {
			stored.expiresAt = now.Add(time.Duration(r.ExpirationMillis) * time.Millisecond)
		}
		e.regions[r.RequestID] = stored

		in := e.last != nil && contains(stored, *e.last)
		e.inside[r.RequestID] = in
		if in && req.InitialTrigger == domain.InitialTriggerEnter && stored.monitors(domain.TransitionEnter) {
			entered = append(entered, r.RequestID)
		}
	}

	if len(entered) == 0 {
		return nil, nil
	}
	sort.Strings(entered)
	return []domain.TransitionBroadcast{broadcast(domain.TransitionEnter, entered, *e.last)}, nil
}

func (e *Engine) remove(identifiers []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range identifiers {
		delete(e.regions, id)
		delete(e.inside, id)
	}
}

// Observe feeds a new device fix and returns one broadcast per transition
// type, each naming every region that crossed its boundary.
func (e *Engine) Observe(fix domain.LocationFix) []domain.TransitionBroadcast {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.last = &fix
	now := e.now()

	var entered, exited []string
	for id, r := range e.regions {
		if r.expired(now) {
			delete(e.regions, id)
			delete(e.inside, id)
			continue
		}

		in := contains(r, fix)
		was := e.inside[id]
		e.inside[id] = in

		switch {
		case in && !was && r.monitors(domain.TransitionEnter):
			entered = append(entered, id)
		case !in && was && r.monitors(domain.TransitionExit):
			exited = append(exited, id)
		}
	}

	var out []domain.TransitionBroadcast
	if len(entered) > 0 {
		sort.Strings(entered)
		out = append(out, broadcast(domain.TransitionEnter, entered, fix))
	}
	if len(exited) > 0 {
		sort.Strings(exited)
		out = append(out, broadcast(domain.TransitionExit, exited, fix))
	}
	return out
}

// Regions lists the identifiers currently monitored.
func (e *Engine) Regions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.regions))
	for id := range e.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func broadcast(t domain.TransitionType, ids []string, fix domain.LocationFix) domain.TransitionBroadcast {
	loc := fix
	return domain.TransitionBroadcast{
		TransitionType:      t,
		TriggeringRegionIDs: ids,
		TriggeringLocation:  &loc,
	}
}

func contains(r region, fix domain.LocationFix) bool {
	return haversine(fix.Latitude, fix.Longitude, r.Latitude, r.Longitude) <= r.RadiusMeters
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
