// Package domain defines the persistence models shared by the stores, the
// correlation engine and the transport adapters. These types are mapped with
// GORM and serialized to JSON in the same shape the event log uses.
package domain

import (
	"strings"
	"time"
)

// Direction is the translation direction of a question.
type Direction string

const (
	// DirectionIT asks for an Italian sentence to be translated into English.
	DirectionIT Direction = "IT"
	// DirectionEN asks for an English sentence to be translated into Italian.
	DirectionEN Direction = "EN"
)

// ParseDirection accepts "IT" or "EN" in any case, surrounding spaces ignored.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case DirectionIT:
		return DirectionIT, true
	case DirectionEN:
		return DirectionEN, true
	}
	return "", false
}

// Label is the human-readable description used in question prompts.
func (d Direction) Label() string {
	if d == DirectionIT {
		return "🇮🇹 Italian → English"
	}
	return "🇬🇧 English → Italian"
}

// Requester is a snapshot of the asking user taken when the question is sent.
// It is never refreshed afterwards.
type Requester struct {
	UserID       int64  `json:"user_id"       gorm:"column:user_id"`
	Username     string `json:"username"      gorm:"column:username;type:varchar(64)"`
	FirstName    string `json:"first_name"    gorm:"column:first_name;type:varchar(128)"`
	LastName     string `json:"last_name"     gorm:"column:last_name;type:varchar(128)"`
	LanguageCode string `json:"language_code" gorm:"column:language_code;type:varchar(35)"`
}

// Exchange is an outstanding question awaiting a reply.
//
// CorrelationKey is the transport-assigned identifier of the question message
// and is the only way a reply finds its question. QuestionID is the stable
// id shown to the user and written to the event log.
type Exchange struct {
	CorrelationKey string    `json:"question_message_id" gorm:"type:varchar(64);primaryKey"`
	QuestionID     string    `json:"qid"                 gorm:"type:char(36);not null;uniqueIndex"`
	Direction      Direction `json:"direction"           gorm:"type:varchar(8);not null"`
	PromptText     string    `json:"sentence"            gorm:"type:text;not null"`
	AskedAt        time.Time `json:"asked_at"            gorm:"not null;index"`
	ChatRef        string    `json:"chat_id"             gorm:"type:varchar(64);not null;index"`
	Requester      Requester `json:"user"                gorm:"embedded;embeddedPrefix:requester_"`
}

// TableName returns the database table name for Exchange.
func (Exchange) TableName() string { return "pending_exchanges" }
