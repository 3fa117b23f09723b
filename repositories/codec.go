package repositories

import (
	"fmt"
	"social-chat/errors"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in protobuf wire format. Field numbers are part of
// the on-disk format and must never be reused.
const (
	msgID protowire.Number = iota + 1
	msgSender
	msgReceiver
	msgText
	msgCreatedAt
	msgFileName
	msgOriginalName
	msgFileType
	msgFileURL
)

const (
	ntfID protowire.Number = iota + 1
	ntfRecipient
	ntfActor
	ntfVerb
	ntfTargetID
	ntfTargetType
	ntfCreatedAt
	ntfIsRead
)

const (
	usrID protowire.Number = iota + 1
	usrUsername
	usrEmail
	usrPasswordHash
	usrCreatedAt
)

const (
	reqID protowire.Number = iota + 1
	reqFrom
	reqTo
	reqStatus
	reqCreatedAt
)

const (
	pstID protowire.Number = iota + 1
	pstAuthor
	pstTitle
	pstContent
	pstCreatedAt
)

const (
	cmtID protowire.Number = iota + 1
	cmtPost
	cmtAuthor
	cmtText
	cmtCreatedAt
)

type recordWriter struct {
	b []byte
}

func (w *recordWriter) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, v)
}

func (w *recordWriter) int64(num protowire.Number, v int64) {
	w.varint(num, uint64(v))
}

func (w *recordWriter) time(num protowire.Number, t time.Time) {
	if t.IsZero() {
		return
	}
	w.int64(num, t.UnixNano())
}

func (w *recordWriter) bool(num protowire.Number, v bool) {
	w.varint(num, protowire.EncodeBool(v))
}

func (w *recordWriter) string(num protowire.Number, s string) {
	if s == "" {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendString(w.b, s)
}

func (w *recordWriter) bytes() []byte {
	return w.b
}

// field is one decoded wire field. Only varint and length-delimited
// values are produced by recordWriter, other types are skipped.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	u     uint64
	bytes []byte
}

func (f field) int64() int64 { return int64(f.u) }

func (f field) string() string { return string(f.bytes) }

func (f field) time() time.Time { return time.Unix(0, int64(f.u)).UTC() }

func (f field) bool() bool { return protowire.DecodeBool(f.u) }

func readRecord(b []byte, visit func(f field)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errors.ErrMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", errors.ErrMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType || typ == protowire.BytesType {
			visit(f)
		}
	}
	return nil
}
