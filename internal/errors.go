package internal

import "errors"

var (
	ErrEmptyCatalog  = errors.New("sketch catalog is empty")
	ErrInvalidConfig = errors.New("invalid game config")
	ErrRoomNotFound  = errors.New("game not found")
	ErrRoomFull      = errors.New("room is full")
)
