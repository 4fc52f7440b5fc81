package model

import "time"

// User is a caller identity handed down by the upstream authentication layer.
// The phone number is the stable identifier every engine operation receives.
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Phone    string `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	Username string `gorm:"size:64;not null" json:"username"`
	// Default trip end position, settable by the user.
	EndDetail string   `gorm:"size:256" json:"endDetail,omitempty"`
	EndLat    *float64 `gorm:"type:decimal(9,6)" json:"endLat,omitempty"`
	EndLng    *float64 `gorm:"type:decimal(9,6)" json:"endLng,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Guardians []Guardian `gorm:"foreignKey:UserID" json:"-"`
}

// Guardian is an emergency contact registered by a user. A user keeps at
// most three.
type Guardian struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	UserID    int64  `gorm:"index;not null" json:"-"`
	Relation  string `gorm:"size:32;not null" json:"relation"`
	Phone     string `gorm:"size:20;not null" json:"phoneNumber"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxGuardiansPerUser caps the number of emergency contacts per user.
const MaxGuardiansPerUser = 3
