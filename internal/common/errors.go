package common

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")

	ErrNotSignedIn = errors.New("not signed in")
	ErrEmptyCart   = errors.New("cart is empty")
)
