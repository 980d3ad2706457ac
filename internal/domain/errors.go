package domain

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrDuplicateDevice  = errors.New("device already joined this room")
	ErrWrongPassword    = errors.New("wrong password")
	ErrLockHeldByOther  = errors.New("file is locked by another device")
	ErrLockCapExceeded  = errors.New("room lock limit reached")
	ErrFileLocked       = errors.New("file is locked")
	ErrInvalidFrame     = errors.New("invalid message format")
	ErrNotInRoom        = errors.New("device is not a member of this room")
	ErrValidation       = errors.New("validation failed")
	ErrRegistryExhausted = errors.New("could not allocate a unique room code")
)
