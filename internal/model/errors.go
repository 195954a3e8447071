package model

import "errors"

var (
	ErrNotFound           = errors.New("order not found")
	ErrDuplicateKey       = errors.New("order code already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
