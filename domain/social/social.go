// Package social holds the entities around the chat core: accounts,
// chat requests, posts and the notifications they produce.
package social

import (
	"fmt"
	"social-chat/domain/chat"
	"time"
)

type User struct {
	ID           chat.UserID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Action is the addressee's answer to a chat request.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

func (a Action) Status() (RequestStatus, bool) {
	switch a {
	case ActionAccept:
		return RequestAccepted, true
	case ActionDecline:
		return RequestDeclined, true
	default:
		return "", false
	}
}

// ChatRequest is unique per ordered (From, To) pair.
type ChatRequest struct {
	ID        int64
	From      chat.UserID
	To        chat.UserID
	Status    RequestStatus
	CreatedAt time.Time
}

type Post struct {
	ID        int64
	AuthorID  chat.UserID
	Title     string
	Content   string
	CreatedAt time.Time
}

// PostSummary is a post with its current like and comment counts.
type PostSummary struct {
	Post
	Likes    int
	Comments int
}

type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  chat.UserID
	Text      string
	CreatedAt time.Time
}

type TargetType string

const (
	TargetPost        TargetType = "post"
	TargetComment     TargetType = "comment"
	TargetChatRequest TargetType = "chat_request"
)

const (
	VerbSentRequest     = "sent you a chat request"
	VerbAcceptedRequest = "accepted your chat request"
	VerbDeclinedRequest = "declined your chat request"
	VerbLikedPost       = "liked your post"
	VerbCommentedPost   = "commented on your post"
)

// Notification is the durable record of a social event addressed to Recipient.
type Notification struct {
	ID         int64
	Recipient  chat.UserID
	Actor      chat.UserID
	Verb       string
	TargetID   int64
	TargetType TargetType
	CreatedAt  time.Time
	IsRead     bool
}

// Text renders the push message, e.g. "alice sent you a chat request".
func Text(actorName, verb string) string {
	return actorName + " " + verb
}

// PostText renders the push message about a post, e.g. "alice liked your post 'Holidays'".
func PostText(actorName, verb, title string) string {
	return fmt.Sprintf("%s %s '%s'", actorName, verb, title)
}
