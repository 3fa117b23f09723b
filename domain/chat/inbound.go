package chat

import (
	"encoding/json"
	"fmt"
	"social-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InboundEvent is a frame sent by a client on a chat connection.
// ReceiverOverride is decoded but never trusted: the receiver always
// comes from the room the connection was authorized for.
type InboundEvent struct {
	Message          string          `json:"message"`
	FileData         string          `json:"file_data"`
	FileName         string          `json:"file_name" validate:"omitempty,max=255"`
	FileType         string          `json:"file_type" validate:"omitempty,max=127"`
	ReceiverOverride json.RawMessage `json:"receiver_id,omitempty"`
}

func DecodeInbound(payload []byte) (InboundEvent, error) {
	var in InboundEvent
	if err := json.Unmarshal(payload, &in); err != nil {
		return InboundEvent{}, fmt.Errorf("decode inbound event: %w", err)
	}
	return in, nil
}

func (in InboundEvent) HasAttachment() bool {
	return in.FileData != ""
}

// Validate rejects frames that must be dropped without being persisted.
func (in InboundEvent) Validate() error {
	if in.Message == "" && in.FileData == "" {
		return errors.ErrEmptyMessage
	}
	if in.FileData != "" && in.FileName == "" {
		return errors.ErrMissingFileName
	}
	return validate.Struct(in)
}

// HasReceiverOverride reports whether the client tried to pick a receiver.
func (in InboundEvent) HasReceiverOverride() bool {
	return len(in.ReceiverOverride) > 0 && string(in.ReceiverOverride) != "null"
}
