package domain

import "time"

// AttendanceStatus represents a worker's current attendance state.
type AttendanceStatus string

const (
	AttendanceCheckedIn  AttendanceStatus = "CHECKED_IN"
	AttendanceCheckedOut AttendanceStatus = "CHECKED_OUT"
)

// WorkerRole represents the role of a worker in the fleet.
type WorkerRole string

const (
	WorkerRoleDriver WorkerRole = "driver"
	WorkerRoleStaff  WorkerRole = "staff"
)

// Worker represents a fleet worker as seen by the attendance registry.
type Worker struct {
	ID             string
	Name           string
	Role           WorkerRole
	Attendance     AttendanceStatus
	LastCheckInAt  time.Time
	LastCheckOutAt time.Time
}
