package chat

import (
	"encoding/json"
	"social-chat/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeAttachment_Strips_Header(t *testing.T) {
	req := require.New(t)

	decoded, err := DecodeAttachment("data:image/png;base64,QUJD", "a.png", "image/png")
	req.NoError(err)
	req.Equal([]byte("ABC"), decoded.Data)
	req.Equal("a.png", decoded.OriginalName)
	req.Equal("image/png", decoded.FileType)
}

func TestDecodeAttachment_Without_Header(t *testing.T) {
	req := require.New(t)

	decoded, err := DecodeAttachment("QUJD", "a.txt", "")
	req.NoError(err)
	req.Equal([]byte("ABC"), decoded.Data)
}

func TestDecodeAttachment_Splits_On_First_Comma_Only(t *testing.T) {
	req := require.New(t)

	// The data segment itself is invalid because it still carries a comma
	_, err := DecodeAttachment("data:a,b,QUJD", "a.txt", "")
	req.ErrorIs(err, errors.ErrAttachmentEncoding)
}

func TestDecodeAttachment_Unpadded(t *testing.T) {
	req := require.New(t)

	decoded, err := DecodeAttachment("data:text/plain;base64,QUI", "ab.txt", "text/plain")
	req.NoError(err)
	req.Equal([]byte("AB"), decoded.Data)
}

func TestDecodeAttachment_Failures(t *testing.T) {
	req := require.New(t)

	_, err := DecodeAttachment("data:image/png;base64,", "a.png", "image/png")
	req.ErrorIs(err, errors.ErrEmptyAttachment)

	_, err = DecodeAttachment("data:image/png;base64,!!!!", "a.png", "image/png")
	req.ErrorIs(err, errors.ErrAttachmentEncoding)
}

func TestInboundEvent_Validate(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(InboundEvent{}.Validate(), errors.ErrEmptyMessage)
	req.ErrorIs(InboundEvent{FileData: "QUJD"}.Validate(), errors.ErrMissingFileName)
	req.NoError(InboundEvent{Message: "hi"}.Validate())
	req.NoError(InboundEvent{FileData: "QUJD", FileName: "a.txt"}.Validate())
}

func TestDecodeInbound_Receiver_Override(t *testing.T) {
	req := require.New(t)

	in, err := DecodeInbound([]byte(`{"message":"hi","receiver_id":9}`))
	req.NoError(err)
	req.Equal("hi", in.Message)
	req.True(in.HasReceiverOverride())

	in, err = DecodeInbound([]byte(`{"message":"hi","receiver_id":"9"}`))
	req.NoError(err)
	req.True(in.HasReceiverOverride())

	in, err = DecodeInbound([]byte(`{"message":"hi"}`))
	req.NoError(err)
	req.False(in.HasReceiverOverride())

	_, err = DecodeInbound([]byte(`not json`))
	req.Error(err)
}

func TestChatMessage_JSON(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Given a text message without attachment
	evt := NewChatMessage(Message{ID: 3, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: at})

	// When serialized
	b, err := json.Marshal(evt)
	req.NoError(err)

	// Then the attachment fields are null
	var out map[string]any
	req.NoError(json.Unmarshal(b, &out))
	req.Equal("chat_message", out["type"])
	req.Equal(float64(3), out["id"])
	req.Equal("hi", out["message"])
	req.Nil(out["file_data"])
	req.Nil(out["file_type"])
	req.Equal(float64(1), out["sender_id"])
	req.Equal(float64(2), out["receiver_id"])
	req.Equal("2024-05-01T10:00:00Z", out["timestamp"])
}

func TestNewDraft(t *testing.T) {
	req := require.New(t)

	// Text only
	draft, err := NewDraft(1, 2, InboundEvent{Message: "hello"})
	req.NoError(err)
	req.Equal(Draft{SenderID: 1, ReceiverID: 2, Text: "hello"}, draft)

	// With an attachment
	draft, err = NewDraft(1, 2, InboundEvent{FileData: "data:image/png;base64,QUJD", FileName: "a.png", FileType: "image/png"})
	req.NoError(err)
	req.Equal("", draft.Text)
	req.Equal([]byte("ABC"), draft.Attachment.Data)
	req.Equal("a.png", draft.Attachment.OriginalName)

	// Undecodable attachment
	_, err = NewDraft(1, 2, InboundEvent{FileData: "data:,%%%", FileName: "a.png"})
	req.ErrorIs(err, errors.ErrAttachmentEncoding)
}
