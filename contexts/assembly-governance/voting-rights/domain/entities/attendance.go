package entities

import "time"

// AttendanceLog marks a unit present. At most one row exists per unit.
type AttendanceLog struct {
	UnitID      string
	AssemblyID  string
	CheckedInAt time.Time
	CheckedInBy string
}
