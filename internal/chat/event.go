package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Inbound event names, client -> server.
const (
	EventUserJoin         = "user_join"
	EventStartPrivateChat = "start_private_chat"
	EventSendMessage      = "send_message"
	EventTyping           = "typing"
	EventDisconnect       = "disconnect"
)

// Inbound is one decoded client event. The concrete types below are the
// only implementations.
type Inbound interface {
	inbound()
}

type JoinEvent struct {
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	ProfilePic string `json:"profilePic"`
}

type StartPrivateChatEvent struct {
	TargetUsername string `json:"targetUsername"`
}

type SendMessageEvent struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	FileURL string `json:"fileUrl"`
	To      string `json:"to"`
}

type TypingEvent struct {
	IsTyping bool   `json:"isTyping"`
	To       string `json:"to"`
}

type DisconnectEvent struct{}

func (JoinEvent) inbound()             {}
func (StartPrivateChatEvent) inbound() {}
func (SendMessageEvent) inbound()      {}
func (TypingEvent) inbound()           {}
func (DisconnectEvent) inbound()       {}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeInbound parses one wire frame into its typed event.
func DecodeInbound(frame []byte) (Inbound, error) {
	var f inboundFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch f.Event {
	case EventUserJoin:
		return decodeAs[JoinEvent](f.Data)
	case EventStartPrivateChat:
		return decodeStartPrivateChat(f.Data)
	case EventSendMessage:
		return decodeAs[SendMessageEvent](f.Data)
	case EventTyping:
		return decodeAs[TypingEvent](f.Data)
	case EventDisconnect:
		return DisconnectEvent{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
}

func decodeAs[E Inbound](data json.RawMessage) (Inbound, error) {
	var e E
	if err := decodeData(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}

// start_private_chat carries either the bare target name or an object.
func decodeStartPrivateChat(data json.RawMessage) (Inbound, error) {
	var e StartPrivateChatEvent
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &e.TargetUsername); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return e, nil
	}
	if err := decodeData(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
