package repositories

import (
	"fmt"
	"strings"
)

// Describe renders a stored record for inspection tools. Unknown keys and
// undecodable values are reported with their size only.
func Describe(key string, val []byte) (kind string, detail string) {
	raw := fmt.Sprintf("%d bytes", len(val))
	switch {
	case strings.HasPrefix(key, messagePrefix):
		m, err := decodeMessage(val)
		if err != nil {
			return "MESSAGE", raw
		}
		detail = fmt.Sprintf("%d -> %d: %s", m.SenderID, m.ReceiverID, m.Text)
		if m.Attachment != nil {
			detail += fmt.Sprintf(" [%s %s]", m.Attachment.FileType, m.Attachment.URL)
		}
		return "MESSAGE", detail
	case strings.HasPrefix(key, "ntf:"):
		n, err := decodeNotification(val)
		if err != nil {
			return "NOTIFICATION", raw
		}
		return "NOTIFICATION", fmt.Sprintf("%d %s (%s %d) read=%t", n.Actor, n.Verb, n.TargetType, n.TargetID, n.IsRead)
	case strings.HasPrefix(key, "user:id:"):
		u, err := decodeUser(val)
		if err != nil {
			return "USER", raw
		}
		return "USER", fmt.Sprintf("%s <%s>", u.Username, u.Email)
	case strings.HasPrefix(key, "req:id:"):
		r, err := decodeRequest(val)
		if err != nil {
			return "REQUEST", raw
		}
		return "REQUEST", fmt.Sprintf("%d -> %d %s", r.From, r.To, r.Status)
	case strings.HasPrefix(key, "post:"):
		p, err := decodePost(val)
		if err != nil {
			return "POST", raw
		}
		return "POST", fmt.Sprintf("%d: %s", p.AuthorID, p.Title)
	case strings.HasPrefix(key, "user:"), strings.HasPrefix(key, "req:"):
		return "INDEX", raw
	case strings.HasPrefix(key, "like:"):
		return "LIKE", raw
	case strings.HasPrefix(key, "cmt:"):
		return "COMMENT", raw
	default:
		return "RAW", raw
	}
}
