package model

import (
	"fmt"
	"time"
)

// DroneStatus is the lifecycle state of a drone.
type DroneStatus string

const (
	DroneAvailable DroneStatus = "AVAILABLE"
	DroneReserved  DroneStatus = "RESERVED"
	DroneInUse     DroneStatus = "IN_USE"
)

// droneTransitions enumerates every legal status transition. Anything not
// listed here is an InvalidDroneState condition.
var droneTransitions = map[DroneStatus][]DroneStatus{
	DroneAvailable: {DroneReserved},
	DroneReserved:  {DroneInUse, DroneAvailable},
	DroneInUse:     {DroneAvailable},
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s DroneStatus) CanTransition(next DroneStatus) bool {
	for _, allowed := range droneTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DroneStatus) String() string { return string(s) }

// InvalidTransitionError reports an attempted illegal drone status change.
type InvalidTransitionError struct {
	From DroneStatus
	To   DroneStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid drone state transition %s -> %s", e.From, e.To)
}

// Drone represents a physical vehicle docked at a hive. Battery is written by
// the external telemetry feed; status is written by the assignment engine.
type Drone struct {
	ID      int64       `gorm:"primaryKey" json:"id"`
	Battery int         `gorm:"not null" json:"battery"`
	Status  DroneStatus `gorm:"size:16;not null;default:AVAILABLE" json:"status"`
	HiveID  *int64      `gorm:"index" json:"hiveId,omitempty"`
	// Code is the device shared secret confirmed during the matching
	// handshake. Never serialized to clients.
	Code      int `gorm:"not null" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Hive *Hive `gorm:"foreignKey:HiveID" json:"-"`
}
