package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

const testKey = "geofences:test"

type GeofenceStoreSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	client *redis.Client
	store  *GeofenceStore
	ctx    context.Context
}

func TestGeofenceStoreSuite(t *testing.T) {
	suite.Run(t, new(GeofenceStoreSuite))
}

func (s *GeofenceStoreSuite) SetupTest() {
	s.server = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.server.Addr()})
	s.store = NewGeofenceStore(s.client, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *GeofenceStoreSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *GeofenceStoreSuite) TestPut() {
	s.Run("writes encoded value under identifier", func() {
		err := s.store.Put(s.ctx, domain.GeofenceDefinition{Identifier: "home", Latitude: 37.5, Longitude: -122.25, RadiusMeters: 100})
		s.Require().NoError(err)
		s.Equal("37.5,-122.25,100", s.server.HGet(testKey, "home"))
	})

	s.Run("overwrites existing identifier", func() {
		s.Require().NoError(s.store.Put(s.ctx, domain.GeofenceDefinition{Identifier: "dup", Latitude: 1, Longitude: 1, RadiusMeters: 1}))
		s.Require().NoError(s.store.Put(s.ctx, domain.GeofenceDefinition{Identifier: "dup", Latitude: 2, Longitude: 2, RadiusMeters: 2}))
		s.Equal("2,2,2", s.server.HGet(testKey, "dup"))
	})
}

func (s *GeofenceStoreSuite) TestRemove() {
	s.server.HSet(testKey, "home", "37,-122,100")
	s.server.HSet(testKey, "work", "38,-121,50")

	s.Require().NoError(s.store.Remove(s.ctx, "home"))
	s.Equal("", s.server.HGet(testKey, "home"))
	s.Equal("38,-121,50", s.server.HGet(testKey, "work"))

	s.Run("missing identifier is not an error", func() {
		s.NoError(s.store.Remove(s.ctx, "nope"))
	})
}

func (s *GeofenceStoreSuite) TestListAll() {
	s.Run("empty namespace", func() {
		defs, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Empty(defs)
	})

	s.Run("skips malformed entries", func() {
		s.server.HSet(testKey, "home", "37,-122,100")
		s.server.HSet(testKey, "short", "37,-122")
		s.server.HSet(testKey, "words", "north,west,far")
		s.server.HSet(testKey, "alpha", "1.5,2.5,3.5")

		defs, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(defs, 2)
		s.Equal(domain.GeofenceDefinition{Identifier: "alpha", Latitude: 1.5, Longitude: 2.5, RadiusMeters: 3.5}, defs[0])
		s.Equal(domain.GeofenceDefinition{Identifier: "home", Latitude: 37, Longitude: -122, RadiusMeters: 100}, defs[1])
	})

	s.Run("namespaces are isolated", func() {
		other := NewGeofenceStore(s.client, "other", s.store.logger)
		defs, err := other.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Empty(defs)
	})
}

func (s *GeofenceStoreSuite) TestBackendError() {
	s.server.SetError("ERR injected failure")
	defer s.server.SetError("")

	s.Error(s.store.Put(s.ctx, domain.GeofenceDefinition{Identifier: "home", Latitude: 1, Longitude: 1, RadiusMeters: 1}))
	_, err := s.store.ListAll(s.ctx)
	s.Error(err)
}
