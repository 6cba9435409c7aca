package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

func newTestStore(t *testing.T) (*GeofenceStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewGeofenceStore(db, "test", slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geofences`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPut_Success(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`INSERT INTO geofences`).
		WithArgs("test", "home", "37,-122,100").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Put(context.Background(), domain.GeofenceDefinition{Identifier: "home", Latitude: 37, Longitude: -122, RadiusMeters: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPut_Error(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`INSERT INTO geofences`).
		WithArgs("test", "home", "37,-122,100").
		WillReturnError(sqlmock.ErrCancelled)

	err := s.Put(context.Background(), domain.GeofenceDefinition{Identifier: "home", Latitude: 37, Longitude: -122, RadiusMeters: 100})
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "upsert home: ") {
		t.Errorf("expected operation in error, got %q", err)
	}
}

func TestRemove_Success(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`DELETE FROM geofences WHERE namespace = (.+) AND identifier = (.+)`).
		WithArgs("test", "home").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Remove(context.Background(), "home"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListAll_SkipsMalformed(t *testing.T) {
	s, mock := newTestStore(t)
	rows := sqlmock.NewRows([]string{"identifier", "value"}).
		AddRow("alpha", "1.5,2.5,3.5").
		AddRow("broken", "1.5,2.5").
		AddRow("home", "37.0,-122.0,100.0").
		AddRow("words", "a,b,c")

	mock.ExpectQuery(`SELECT identifier, value FROM geofences WHERE namespace = (.+) ORDER BY identifier ASC`).
		WithArgs("test").
		WillReturnRows(rows)

	defs, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Identifier != "alpha" || defs[0].RadiusMeters != 3.5 {
		t.Errorf("unexpected first definition: %+v", defs[0])
	}
	if defs[1].Identifier != "home" || defs[1].Latitude != 37 || defs[1].Longitude != -122 {
		t.Errorf("unexpected second definition: %+v", defs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListAll_Empty(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery(`SELECT identifier, value FROM geofences`).
		WithArgs("test").
		WillReturnRows(sqlmock.NewRows([]string{"identifier", "value"}))

	defs, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected 0 definitions, got %d", len(defs))
	}
}

func TestListAll_QueryError(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery(`SELECT identifier, value FROM geofences`).
		WithArgs("test").
		WillReturnError(sqlmock.ErrCancelled)

	_, err := s.ListAll(context.Background())
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "select geofences: ") {
		t.Errorf("expected operation in error, got %q", err)
	}
}

func TestRemove_Error(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`DELETE FROM geofences`).
		WithArgs("test", "home").
		WillReturnError(sqlmock.ErrCancelled)

	err := s.Remove(context.Background(), "home")
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "delete home: ") {
		t.Errorf("expected operation in error, got %q", err)
	}
}
