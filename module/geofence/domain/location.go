package domain

// LocationFix is the triggering location carried by a platform broadcast.
type LocationFix struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Altitude           float64 `json:"altitude"`
	HorizontalAccuracy float64 `json:"horizontalAccuracy"`
	VerticalAccuracy   float64 `json:"verticalAccuracy"`
	TimeMillis         int64   `json:"timeMillis"`
}

// EventLocation is the listener-facing rendition of a fix, with the
// timestamp in fractional seconds.
type EventLocation struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Altitude           float64 `json:"altitude"`
	HorizontalAccuracy float64 `json:"horizontalAccuracy"`
	VerticalAccuracy   float64 `json:"verticalAccuracy"`
	Timestamp          float64 `json:"timestamp"`
}

func (f LocationFix) EventLocation() EventLocation {
	return EventLocation{
		Latitude:           f.Latitude,
		Longitude:          f.Longitude,
		Altitude:           f.Altitude,
		HorizontalAccuracy: f.HorizontalAccuracy,
		VerticalAccuracy:   f.VerticalAccuracy,
		Timestamp:          float64(f.TimeMillis) / 1000.0,
	}
}
