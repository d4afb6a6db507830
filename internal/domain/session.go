package domain

import "time"

// Surface identifies the view a session was timed on.
type Surface string

const (
	SurfaceWorkout    Surface = "workout"
	SurfaceMeditation Surface = "meditation"
)

// Surfaces lists every known surface in report order.
var Surfaces = []Surface{SurfaceWorkout, SurfaceMeditation}

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	return s == SurfaceWorkout || s == SurfaceMeditation
}

// SessionRecord is a persisted timer session.
type SessionRecord struct {
	ID           string
	Surface      Surface
	ActivityKind string
	DurationMin  int
	RecordedAt   time.Time
}

// Cursor models the pagination token.
type Cursor struct {
	RecordedAt time.Time
	ID         string
}
