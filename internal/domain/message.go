package domain

// Commands understood by the dispatcher.
const (
	CommandStart = "start"
	CommandAsk   = "ask"
)

// Inbound is a transport-neutral incoming chat message.
//
// ReplyToKey is empty unless the message is a reply, in which case it holds
// the correlation key of the replied-to message.
type Inbound struct {
	UpdateID   int64
	MessageID  string
	ChatRef    string
	Text       string
	ReplyToKey string
	Command    string
	Sender     Requester
}

// IsReply reports whether the message replies to another message.
func (in Inbound) IsReply() bool { return in.ReplyToKey != "" }

// SendOptions controls how an outbound message is rendered by the transport.
type SendOptions struct {
	ForceReply bool   // ask the client to open a reply box
	ReplyToKey string // thread the message under this one
	Markdown   bool
}
