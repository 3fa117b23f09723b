// Package chat contains the core concepts of the direct messaging feature:
// rooms shared by exactly two users, persisted messages and the events
// pushed to live connections.
package chat

import (
	"fmt"
	"social-chat/errors"
	"strconv"
	"strings"
)

const (
	roomTag  = "chat"
	userTag  = "user"
	keySep   = "_"
	keyParts = 3
)

type UserID int64

// GroupKey identifies a set of live connections in the registry.
// Room groups look like "chat_1_2", personal notification groups like "user_1".
type GroupKey string

func (g GroupKey) String() string {
	return string(g)
}

// Principal is the identity attached to an incoming connection.
// The zero value is an anonymous principal.
type Principal struct {
	UserID   UserID
	Username string
}

func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// Room is a two-party conversation. Low is always <= High so that
// NewRoom(a, b) == NewRoom(b, a).
type Room struct {
	Low  UserID
	High UserID
}

func NewRoom(a, b UserID) Room {
	if a > b {
		a, b = b, a
	}
	return Room{Low: a, High: b}
}

// Group returns the canonical registry key chat_{min}_{max}.
func (r Room) Group() GroupKey {
	return GroupKey(fmt.Sprintf("%s%s%d%s%d", roomTag, keySep, r.Low, keySep, r.High))
}

func (r Room) Has(user UserID) bool {
	return user == r.Low || user == r.High
}

// Counterpart returns the other participant. A self room returns the user itself.
func (r Room) Counterpart(user UserID) UserID {
	if user == r.Low {
		return r.High
	}
	return r.Low
}

// UserGroup is the personal notification channel of a user.
func UserGroup(user UserID) GroupKey {
	return GroupKey(fmt.Sprintf("%s%s%d", userTag, keySep, user))
}

// ParseRoom parses a token of the form chat_<id1>_<id2>, in any id order.
func ParseRoom(token string) (Room, error) {
	parts := strings.Split(token, keySep)
	if len(parts) != keyParts || parts[0] != roomTag {
		return Room{}, fmt.Errorf("%w: %q", errors.ErrMalformedRoom, token)
	}
	first, err := parseUserID(parts[1])
	if err != nil {
		return Room{}, fmt.Errorf("%w: %q", errors.ErrMalformedRoom, token)
	}
	second, err := parseUserID(parts[2])
	if err != nil {
		return Room{}, fmt.Errorf("%w: %q", errors.ErrMalformedRoom, token)
	}
	return NewRoom(first, second), nil
}

// ResolveRoom authorizes a principal against a room token.
// A malformed token is reported before the principal is even looked at.
func ResolveRoom(token string, principal Principal) (Room, error) {
	room, err := ParseRoom(token)
	if err != nil {
		return Room{}, err
	}
	if !principal.Authenticated() {
		return Room{}, errors.ErrUnauthenticated
	}
	if !room.Has(principal.UserID) {
		return Room{}, fmt.Errorf("%w: user %d in %s", errors.ErrRoomMismatch, principal.UserID, room.Group())
	}
	return room, nil
}

func parseUserID(s string) (UserID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("user id must be positive, got %d", id)
	}
	return UserID(id), nil
}
