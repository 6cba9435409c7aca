package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueSeparator joins the numeric fields of a persisted definition.
const ValueSeparator = ","

type GeofenceDefinition struct {
	Identifier   string  `json:"identifier"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius"`
}

func (d GeofenceDefinition) Validate() error {
	if err := ValidateIdentifier(d.Identifier); err != nil {
		return err
	}
	if !isFinite(d.Latitude) || d.Latitude < -90 || d.Latitude > 90 {
		return fmt.Errorf("%w: latitude: must be between -90 and 90", ErrInvalidDefinition)
	}
	if !isFinite(d.Longitude) || d.Longitude < -180 || d.Longitude > 180 {
		return fmt.Errorf("%w: longitude: must be between -180 and 180", ErrInvalidDefinition)
	}
	if !isFinite(d.RadiusMeters) || d.RadiusMeters <= 0 {
		return fmt.Errorf("%w: radius: must be positive", ErrInvalidDefinition)
	}
	return nil
}

// ValidateIdentifier rejects identifiers that are blank or would collide
// with the value separator.
func ValidateIdentifier(identifier string) error {
	if strings.TrimSpace(identifier) == "" {
		return fmt.Errorf("%w: identifier: required", ErrInvalidDefinition)
	}
	if strings.Contains(identifier, ValueSeparator) {
		return fmt.Errorf("%w: identifier: must not contain %q", ErrInvalidDefinition, ValueSeparator)
	}
	return nil
}

// EncodeValue renders the persisted form "<lat>,<lon>,<radius>".
func (d GeofenceDefinition) EncodeValue() string {
	return strings.Join([]string{
		strconv.FormatFloat(d.Latitude, 'f', -1, 64),
		strconv.FormatFloat(d.Longitude, 'f', -1, 64),
		strconv.FormatFloat(d.RadiusMeters, 'f', -1, 64),
	}, ValueSeparator)
}

// DecodeDefinition parses a persisted value. Anything other than exactly
// three finite numbers is ErrMalformedEntry.
func DecodeDefinition(identifier, value string) (GeofenceDefinition, error) {
	parts := strings.Split(value, ValueSeparator)
	if len(parts) != 3 {
		return GeofenceDefinition{}, fmt.Errorf("%w: %q: expected 3 fields, got %d", ErrMalformedEntry, identifier, len(parts))
	}

	var fields [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || !isFinite(v) {
			return GeofenceDefinition{}, fmt.Errorf("%w: %q: field %d is not a finite number", ErrMalformedEntry, identifier, i)
		}
		fields[i] = v
	}

	return GeofenceDefinition{
		Identifier:   identifier,
		Latitude:     fields[0],
		Longitude:    fields[1],
		RadiusMeters: fields[2],
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
