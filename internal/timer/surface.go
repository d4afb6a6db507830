package timer

import "fmt"

// Surface describes one activity view hosting a timer and the copy it shows.
type Surface struct {
	Name           string
	SuccessFormat  string
	FailureMessage string
}

var (
	// Workout is the exercise page timer.
	Workout = Surface{
		Name:           "workout",
		SuccessFormat:  "Great job! %d minute %s workout saved!",
		FailureMessage: "Workout completed but not saved.",
	}
	// Meditation is the mental health page timer.
	Meditation = Surface{
		Name:           "meditation",
		SuccessFormat:  "Wonderful! %d minute %s session saved!",
		FailureMessage: "Meditation completed but not saved.",
	}
)

// SurfaceByName returns the built-in surface with the given name.
func SurfaceByName(name string) (Surface, bool) {
	switch name {
	case Workout.Name:
		return Workout, true
	case Meditation.Name:
		return Meditation, true
	}
	return Surface{}, false
}

func (s Surface) successMessage(record SessionRecord) string {
	return fmt.Sprintf(s.SuccessFormat, record.DurationMinutes, record.ActivityKind)
}
