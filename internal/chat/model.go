package chat

import "time"

// ---------------------------------------------
// Identity
// ---------------------------------------------

// ConnID identifies one live transport session. It is created by the
// transport on connect and is only ever referenced by the registries.
type ConnID string

// UserProfile is the identity bound to a joined connection.
type UserProfile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	ConnID   ConnID `json:"socketId"`
}

// ProfileInput is what a client declares on join. ProfilePic wins over
// Avatar when both are set.
type ProfileInput struct {
	Username   string
	Avatar     string
	ProfilePic string
}

func (in ProfileInput) avatar() string {
	if in.ProfilePic != "" {
		return in.ProfilePic
	}
	return in.Avatar
}

// ---------------------------------------------
// Messages
// ---------------------------------------------

// ConversationKey is the order-independent id of a private two-party chat.
type ConversationKey string

type MessageKind string

const (
	KindText MessageKind = "text"
	KindFile MessageKind = "file"
)

// ParseKind maps the client supplied type onto a MessageKind.
// Anything that is not "file" is text, unless a file URL came with it.
func ParseKind(raw, fileURL string) MessageKind {
	switch MessageKind(raw) {
	case KindFile:
		return KindFile
	case KindText:
		return KindText
	}
	if fileURL != "" {
		return KindFile
	}
	return KindText
}

type Message struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Avatar    string          `json:"avatar"`
	Body      string          `json:"message"`
	Kind      MessageKind     `json:"type"`
	FileURL   string          `json:"fileUrl,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	ChatID    ConversationKey `json:"chatId,omitempty"` // empty => public
}

// ---------------------------------------------
// Outbound events
// ---------------------------------------------

const (
	EventUserList           = "user_list"
	EventUserConnected      = "user_connected"
	EventUserDisconnected   = "user_disconnected"
	EventPrivateChatStarted = "private_chat_started"
	EventNewMessage         = "new_message"
	EventPrivateMessage     = "private_message"
	EventUserTyping         = "user_typing"
)

type PrivateChatStarted struct {
	ChatID   ConversationKey `json:"chatId"`
	Username string          `json:"username"`
	Messages []Message       `json:"messages"`
}

type UserTyping struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// Stats is a point-in-time view of the hub used by the health endpoint.
type Stats struct {
	Connections   int `json:"connections"`
	Users         int `json:"users"`
	Conversations int `json:"conversations"`
}
