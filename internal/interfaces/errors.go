package interfaces

import "errors"

var (
	ErrFetch            = errors.New("fetch failed")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate natural key")
	ErrUnsupportedSport = errors.New("unsupported sport")
	ErrStoreCommit      = errors.New("store commit failed")
)
