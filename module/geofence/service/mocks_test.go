package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingFaults struct {
	mu     sync.Mutex
	faults []domain.Fault
}

func (r *recordingFaults) ReportFault(_ context.Context, f domain.Fault) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, f)
}

func (r *recordingFaults) all() []domain.Fault {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Fault(nil), r.faults...)
}

// fakePlatform holds continuations until the test acknowledges them.
type fakePlatform struct {
	mu        sync.Mutex
	addErr    error
	removeErr error
	adds      []domain.GeofencingRequest
	removes   [][]string
	pending   []func(error)
}

func (p *fakePlatform) AddGeofences(req domain.GeofencingRequest, done func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addErr != nil {
		return p.addErr
	}
	p.adds = append(p.adds, req)
	p.pending = append(p.pending, done)
	return nil
}

func (p *fakePlatform) RemoveGeofences(identifiers []string, done func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.removeErr != nil {
		return p.removeErr
	}
	p.removes = append(p.removes, identifiers)
	p.pending = append(p.pending, done)
	return nil
}

// ack resolves the oldest pending request with err.
func (p *fakePlatform) ack(err error) {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		panic("no pending platform request")
	}
	done := p.pending[0]
	p.pending = p.pending[1:]
	p.mu.Unlock()
	done(err)
}

type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	putErr  error
	listErr error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Put(_ context.Context, def domain.GeofenceDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.values[def.Identifier] = def.EncodeValue()
	return nil
}

func (s *memStore) Remove(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, identifier)
	return nil
}

func (s *memStore) ListAll(_ context.Context) ([]domain.GeofenceDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var results []domain.GeofenceDefinition
	for id, v := range s.values {
		def, err := domain.DecodeDefinition(id, v)
		if err != nil {
			continue
		}
		results = append(results, def)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Identifier < results[j].Identifier })
	return results, nil
}

type mockListener struct {
	mu        sync.Mutex
	deliverFn func(ctx context.Context, msg domain.ListenerMessage) error
	messages  []domain.ListenerMessage
}

func (m *mockListener) Deliver(ctx context.Context, msg domain.ListenerMessage) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	if m.deliverFn != nil {
		return m.deliverFn(ctx, msg)
	}
	return nil
}

func (m *mockListener) received() []domain.ListenerMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ListenerMessage(nil), m.messages...)
}
