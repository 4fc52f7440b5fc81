package model

import "time"

// Hive represents a fixed drone docking station. Its location is immutable
// once provisioned; drones dock to and launch from it.
type Hive struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:128;not null" json:"name"`
	HiveNo    int     `gorm:"not null" json:"hiveNo"`
	Direction string  `gorm:"size:32;not null" json:"direction"`
	Lat       float64 `gorm:"type:decimal(9,6);not null" json:"lat"`
	Lng       float64 `gorm:"type:decimal(9,6);not null" json:"lng"`
	IP        string  `gorm:"size:15;not null" json:"ip"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Drones []Drone `gorm:"foreignKey:HiveID" json:"drones,omitempty"`
}
