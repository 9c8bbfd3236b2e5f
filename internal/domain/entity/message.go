package entity

const (
	MessageTypeText   = "text"
	DefaultSenderName = "Unknown"
)

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	SenderName     string     `json:"sender_name"`
	Text           string     `json:"text"`
	Type           string     `json:"type"`
	Timestamp      ServerTime `json:"timestamp"`
}

// MessageRef is an allocated, not yet persisted, message identity.
type MessageRef struct {
	ID string
}

// MessagePayload is a message body waiting for its server-assigned time.
type MessagePayload struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Text           string
	Type           string
}

// TextPayloadInput carries the caller-supplied fields of a text message.
type TextPayloadInput struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Text           string
}
