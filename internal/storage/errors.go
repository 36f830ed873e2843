package storage

import "errors"

// ErrSessionNotFound indicates the session expired or never existed
var ErrSessionNotFound = errors.New("session not found")
