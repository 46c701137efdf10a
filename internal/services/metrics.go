package services

import "github.com/prometheus/client_golang/prometheus"

// Reasons attached to tutor_replies_ignored_total.
const (
	ignoreNotReply     = "not_reply"
	ignoreUnknownKey   = "unknown_key"
	ignoreDuplicateUpd = "duplicate_update"
	ignoreCommand      = "unknown_command"
)

var (
	questionsAsked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_questions_asked_total",
		Help: "Questions sent and recorded as pending.",
	})
	answersMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_answers_matched_total",
		Help: "Replies correlated with a pending question.",
	})
	repliesIgnored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_replies_ignored_total",
		Help: "Inbound messages that did not answer a pending question.",
	}, []string{"reason"})
	eventLogFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_event_log_failures_total",
		Help: "Audit entries that could not be appended.",
	})
	evaluationFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_evaluation_fallbacks_total",
		Help: "Answers confirmed generically because evaluation failed.",
	})
	pendingSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_pending_swept_total",
		Help: "Pending questions removed for exceeding the maximum age.",
	})
)

func init() {
	prometheus.MustRegister(questionsAsked, answersMatched, repliesIgnored,
		eventLogFailures, evaluationFallbacks, pendingSwept)
}
