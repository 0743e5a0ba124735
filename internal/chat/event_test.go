package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{
			name:  "join",
			frame: `{"event":"user_join","data":{"username":"alice","avatar":"a.png","profilePic":"p.png"}}`,
			want:  JoinEvent{Username: "alice", Avatar: "a.png", ProfilePic: "p.png"},
		},
		{
			name:  "private chat with bare name",
			frame: `{"event":"start_private_chat","data":"bob"}`,
			want:  StartPrivateChatEvent{TargetUsername: "bob"},
		},
		{
			name:  "private chat with object",
			frame: `{"event":"start_private_chat","data":{"targetUsername":"bob"}}`,
			want:  StartPrivateChatEvent{TargetUsername: "bob"},
		},
		{
			name:  "send message",
			frame: `{"event":"send_message","data":{"message":"hi","type":"file","fileUrl":"u","to":"bob"}}`,
			want:  SendMessageEvent{Message: "hi", Type: "file", FileURL: "u", To: "bob"},
		},
		{
			name:  "typing",
			frame: `{"event":"typing","data":{"isTyping":true}}`,
			want:  TypingEvent{IsTyping: true},
		},
		{
			name:  "disconnect",
			frame: `{"event":"disconnect"}`,
			want:  DisconnectEvent{},
		},
		{
			name:  "missing data",
			frame: `{"event":"send_message","data":null}`,
			want:  SendMessageEvent{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeInbound_Errors(t *testing.T) {
	_, err := DecodeInbound([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformedFrame)

	_, err = DecodeInbound([]byte(`{"event":"typing","data":{"isTyping":"yes"}}`))
	require.ErrorIs(t, err, ErrMalformedFrame)

	_, err = DecodeInbound([]byte(`{"event":"dance","data":{}}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeFrame(EventUserDisconnected, "alice")
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.JSONEq(t, `"user_disconnected"`, string(got["event"]))
	assert.JSONEq(t, `"alice"`, string(got["data"]))
}

func TestMessageJSON_OmitsChatIDWhenPublic(t *testing.T) {
	b, err := json.Marshal(Message{ID: "1", Username: "alice", Body: "hi", Kind: KindText})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "chatId")
	assert.Contains(t, string(b), `"message":"hi"`)
	assert.Contains(t, string(b), `"type":"text"`)
}
