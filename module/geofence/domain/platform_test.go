package domain

import (
	"errors"
	"testing"
)

func TestNewGeofencingRequest(t *testing.T) {
	req := NewGeofencingRequest(GeofenceDefinition{Identifier: "home", Latitude: 37, Longitude: -122, RadiusMeters: 100})

	if req.InitialTrigger != InitialTriggerEnter {
		t.Errorf("expected initial trigger enter, got %d", req.InitialTrigger)
	}
	if len(req.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(req.Regions))
	}
	r := req.Regions[0]
	if r.RequestID != "home" || r.RadiusMeters != 100 {
		t.Errorf("unexpected region: %+v", r)
	}
	if r.ExpirationMillis != NeverExpire {
		t.Errorf("expected never expire, got %d", r.ExpirationMillis)
	}
	if len(r.Transitions) != 2 || r.Transitions[0] != TransitionEnter || r.Transitions[1] != TransitionExit {
		t.Errorf("expected enter+exit mask, got %v", r.Transitions)
	}
}

func TestAckRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status AckStatus
		want   error
	}{
		{"ok", nil, AckOK, nil},
		{"permission", ErrPermissionDenied, AckPermissionDenied, ErrPermissionDenied},
		{"other", errors.New("boom"), AckError, ErrPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := AckFor("req-1", tt.err)
			if ack.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, ack.Status)
			}
			if tt.want == nil && ack.Err() != nil {
				t.Errorf("expected nil, got %v", ack.Err())
			}
			if tt.want != nil && !errors.Is(ack.Err(), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ack.Err())
			}
		})
	}
}

func TestClassifyPlatformError(t *testing.T) {
	if got := ClassifyPlatformError(PlatformAck{Status: AckPermissionDenied}.Err()); got != FaultPermission {
		t.Errorf("expected permission, got %s", got)
	}
	if got := ClassifyPlatformError(errors.New("timeout")); got != FaultPlatform {
		t.Errorf("expected platform, got %s", got)
	}
}

func TestNewTopics(t *testing.T) {
	topics := NewTopics("geofencing")
	if topics.Requests != "geofencing/requests" || topics.Acks != "geofencing/acks" || topics.Transitions != "geofencing/transitions" {
		t.Errorf("unexpected topics: %+v", topics)
	}
}
