package domain

import "time"

// ProcessedUpdate records a transport update id that has already been
// dispatched. Webhook redeliveries carrying the same update id are dropped
// until ExpiresAt.
type ProcessedUpdate struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	UpdateID   int64     `gorm:"not null;uniqueIndex:ux_processed_update"`
	ChatRef    string    `gorm:"type:varchar(64);not null"`
	ReceivedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ProcessedUpdate) TableName() string { return "processed_updates" }
