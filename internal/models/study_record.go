package models

import "time"

// StudyRecord is the durable snapshot of one hazard-study session. The
// aggregate itself is stored as JSON in Payload; the remaining columns are
// denormalised for listing.
type StudyRecord struct {
	ID           string `gorm:"primaryKey;size:32"`
	Seq          int    `gorm:"index"`
	State        string `gorm:"size:16;index"`
	Installation string `gorm:"size:128;index"`
	Title        string `gorm:"size:255"`
	Payload      string `gorm:"type:mediumtext"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
