package chat

import (
	"encoding/base64"
	"fmt"
	"social-chat/errors"
	"strings"
)

const headerDelimiter = ","

// DecodedAttachment holds raw attachment bytes before they are stored.
type DecodedAttachment struct {
	Data         []byte
	OriginalName string
	FileType     string
}

// DecodeAttachment decodes a base64 payload such as "data:image/png;base64,QUJD".
// Everything up to and including the first comma is a header and is discarded.
func DecodeAttachment(fileData, fileName, fileType string) (*DecodedAttachment, error) {
	encoded := fileData
	if i := strings.Index(encoded, headerDelimiter); i >= 0 {
		encoded = encoded[i+len(headerDelimiter):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.ErrEmptyAttachment
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Unpadded payloads
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrAttachmentEncoding, err)
		}
	}
	if len(data) == 0 {
		return nil, errors.ErrEmptyAttachment
	}
	return &DecodedAttachment{Data: data, OriginalName: fileName, FileType: fileType}, nil
}

// NewDraft turns a validated inbound frame into a Draft, decoding its attachment if any.
func NewDraft(sender, receiver UserID, in InboundEvent) (Draft, error) {
	draft := Draft{SenderID: sender, ReceiverID: receiver, Text: in.Message}
	if !in.HasAttachment() {
		return draft, nil
	}
	attachment, err := DecodeAttachment(in.FileData, in.FileName, in.FileType)
	if err != nil {
		return Draft{}, err
	}
	draft.Attachment = attachment
	return draft, nil
}
