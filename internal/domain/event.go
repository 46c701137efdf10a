package domain

import "time"

// EventKind names an entry in the audit trail.
type EventKind string

const (
	EventAsked    EventKind = "asked"
	EventAnswered EventKind = "answered"
)

// Evaluation is the outcome of a successful answer evaluation.
type Evaluation struct {
	Feedback string   `json:"feedback"`
	Correct  *string  `json:"correct,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Provider string   `json:"provider"`
}

// Event is one immutable audit trail entry. It carries a full copy of the
// exchange so that every line of the log stands on its own.
type Event struct {
	ID uint `json:"-" gorm:"primaryKey;autoIncrement"`

	Kind           EventKind `json:"event"               gorm:"column:event;type:varchar(16);not null;index"`
	TS             time.Time `json:"ts"                  gorm:"not null"`
	QuestionID     string    `json:"qid"                 gorm:"type:char(36);not null;index"`
	Direction      Direction `json:"direction"           gorm:"type:varchar(8);not null"`
	PromptText     string    `json:"sentence"            gorm:"type:text;not null"`
	ChatRef        string    `json:"chat_id"             gorm:"type:varchar(64);not null"`
	Requester      Requester `json:"user"                gorm:"embedded;embeddedPrefix:requester_"`
	CorrelationKey string    `json:"question_message_id" gorm:"type:varchar(64);not null"`
	AskedAt        time.Time `json:"asked_at"            gorm:"not null"`

	// answered only
	AnsweredAt      *time.Time  `json:"answered_at,omitempty"`
	AnswerMessageID string      `json:"answer_message_id,omitempty" gorm:"type:varchar(64)"`
	UserAnswer      string      `json:"user_answer,omitempty"       gorm:"type:text"`
	BotReply        string      `json:"bot_reply,omitempty"         gorm:"type:text"`
	Evaluation      *Evaluation `json:"evaluation,omitempty"        gorm:"serializer:json"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "exchange_events" }

// AskedEvent builds the entry recorded when a question goes out.
func AskedEvent(ex Exchange, ts time.Time) Event {
	return Event{
		Kind:           EventAsked,
		TS:             ts.UTC(),
		QuestionID:     ex.QuestionID,
		Direction:      ex.Direction,
		PromptText:     ex.PromptText,
		ChatRef:        ex.ChatRef,
		Requester:      ex.Requester,
		CorrelationKey: ex.CorrelationKey,
		AskedAt:        ex.AskedAt.UTC(),
	}
}

// AnsweredEvent builds the entry recorded when a reply consumes a question.
func AnsweredEvent(ex Exchange, in Inbound, answeredAt time.Time, botReply string, eval *Evaluation) Event {
	at := answeredAt.UTC()
	ev := AskedEvent(ex, at)
	ev.Kind = EventAnswered
	ev.AnsweredAt = &at
	ev.AnswerMessageID = in.MessageID
	ev.UserAnswer = in.Text
	ev.BotReply = botReply
	ev.Evaluation = eval
	return ev
}
