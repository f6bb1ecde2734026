package bus

import "time"

// InboundMessage is a user utterance received by a channel.
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// Username returns the "username" metadata entry, if a channel set one.
func (m *InboundMessage) Username() string {
	if m.Metadata == nil {
		return ""
	}
	s, _ := m.Metadata["username"].(string)
	return s
}

// OutboundMessage is a reply routed back to the channel named in Channel.
type OutboundMessage struct {
	Channel  string
	ChatID   string
	Content  string
	ReplyTo  string
	Metadata map[string]any
}
