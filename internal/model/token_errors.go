package model

import "errors"

var (
	ErrTokenExpired   = errors.New("session token expired")
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenInvalid   = errors.New("session token invalid")
)
