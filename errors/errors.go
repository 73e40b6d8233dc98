package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrDuplicateIdentity  = fmt.Errorf("account already connected")
	ErrBanned             = fmt.Errorf("account is banned")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrMessageNotFound = fmt.Errorf("message not found")

	ErrNotAuthorized    = fmt.Errorf("not authorized")
	ErrUnsupportedMedia = fmt.Errorf("unsupported media type")
	ErrSummoned         = fmt.Errorf("session is under summons")
	ErrRoomLocked       = fmt.Errorf("room is locked")
	ErrMuted            = fmt.Errorf("account is muted")
	ErrGuestLimit       = fmt.Errorf("guest message limit reached")
	ErrSevereContent    = fmt.Errorf("message rejected by moderation")

	ErrTicketAlreadyOpen = fmt.Errorf("an open ticket already exists for this account")
	ErrNotBanned         = fmt.Errorf("account is not banned")
)
