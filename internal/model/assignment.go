package model

import "time"

// AssignmentStatus is retained for forward extension; the drone's status is
// the authoritative state for the trip.
type AssignmentStatus string

const (
	AssignmentTemporary AssignmentStatus = "TEMPORARY"
)

// Assignment is one user's active claim on one drone for one trip. The row is
// created when a drone is reserved and deleted on cancellation or completion;
// its presence is the "drone is held" signal. The unique indexes back the
// one-assignment-per-user and one-assignment-per-drone invariants.
type Assignment struct {
	ID        int64            `gorm:"primaryKey"`
	DroneID   int64            `gorm:"uniqueIndex;not null"`
	UserID    int64            `gorm:"uniqueIndex;not null"`
	StartLat  float64          `gorm:"type:decimal(9,6);not null"`
	StartLng  float64          `gorm:"type:decimal(9,6);not null"`
	EndLat    float64          `gorm:"type:decimal(9,6);not null"`
	EndLng    float64          `gorm:"type:decimal(9,6);not null"`
	Status    AssignmentStatus `gorm:"size:16;not null;default:TEMPORARY"`
	CreatedAt time.Time

	// Associations
	Drone Drone `gorm:"foreignKey:DroneID"`
	User  User  `gorm:"foreignKey:UserID"`
}
