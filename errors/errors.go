package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Connection protocol
	ErrMalformedRoom   = fmt.Errorf("malformed room token")
	ErrUnauthenticated = fmt.Errorf("unauthenticated principal")
	ErrRoomMismatch    = fmt.Errorf("principal is not a participant of the room")
	ErrSessionState    = fmt.Errorf("invalid session state transition")
	ErrSessionClosed   = fmt.Errorf("session closed")

	// Message level
	ErrEmptyMessage       = fmt.Errorf("message has neither text nor attachment")
	ErrEmptyAttachment    = fmt.Errorf("attachment payload is empty")
	ErrAttachmentEncoding = fmt.Errorf("attachment payload is not valid base64")
	ErrMissingFileName    = fmt.Errorf("attachment requires a file name")
	ErrMalformedRecord    = fmt.Errorf("malformed stored record")
	ErrInvalidCursor      = fmt.Errorf("invalid cursor")

	// Accounts
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidUsername    = fmt.Errorf("invalid username or email")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")

	// Social
	ErrSelfRequest      = fmt.Errorf("cannot send a chat request to yourself")
	ErrRequestExists    = fmt.Errorf("chat request already exists")
	ErrRequestNotFound  = fmt.Errorf("chat request not found")
	ErrNotAddressee     = fmt.Errorf("only the addressee can respond to a chat request")
	ErrInvalidAction    = fmt.Errorf("invalid action")
	ErrPostNotFound     = fmt.Errorf("post not found")
	ErrEmptyPost        = fmt.Errorf("post content cannot be empty")
	ErrEmptyComment     = fmt.Errorf("comment cannot be empty")
	ErrNotFound         = fmt.Errorf("not found")
	ErrNotificationGone = fmt.Errorf("notification not found")
	ErrInvalidBody      = fmt.Errorf("invalid request body")
	ErrInvalidParameter = fmt.Errorf("invalid path or query parameter")
)

// WebSocket close codes sent when a connection is rejected before it becomes active.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseMalformedRoom   = 4000
	CloseUnauthenticated = 4001
	CloseRoomMismatch    = 4003
)

// CloseCode maps a connection protocol error to the close code reported to the client.
func CloseCode(err error) int {
	switch {
	case goerrors.Is(err, ErrMalformedRoom):
		return CloseMalformedRoom
	case goerrors.Is(err, ErrUnauthenticated):
		return CloseUnauthenticated
	case goerrors.Is(err, ErrRoomMismatch):
		return CloseRoomMismatch
	default:
		return CloseNormal
	}
}

// HTTPStatus maps a service error to the status code of the JSON error response.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.Is(err, ErrUnauthenticated),
		goerrors.Is(err, ErrInvalidCredentials),
		goerrors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case goerrors.Is(err, ErrNotAddressee),
		goerrors.Is(err, ErrRoomMismatch):
		return http.StatusForbidden
	case goerrors.Is(err, ErrUserNotFound),
		goerrors.Is(err, ErrRequestNotFound),
		goerrors.Is(err, ErrPostNotFound),
		goerrors.Is(err, ErrNotificationGone),
		goerrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, ErrUserAlreadyExists),
		goerrors.Is(err, ErrRequestExists):
		return http.StatusConflict
	case goerrors.Is(err, ErrInvalidPassword),
		goerrors.Is(err, ErrInvalidUsername),
		goerrors.Is(err, ErrSelfRequest),
		goerrors.Is(err, ErrInvalidAction),
		goerrors.Is(err, ErrEmptyPost),
		goerrors.Is(err, ErrEmptyComment),
		goerrors.Is(err, ErrMalformedRoom),
		goerrors.Is(err, ErrInvalidCursor),
		goerrors.Is(err, ErrInvalidBody),
		goerrors.Is(err, ErrInvalidParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
