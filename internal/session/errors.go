package session

import "errors"

var (
	ErrBusy          = errors.New("session_busy")
	ErrInvalidRoomID = errors.New("invalid_room_id")
)
