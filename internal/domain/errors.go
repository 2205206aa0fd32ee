package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownField   = errors.New("unknown listing field")
	ErrUnknownLayout  = errors.New("unknown layout")
	ErrBadImage       = errors.New("unreadable image")
	ErrImageTooLarge  = errors.New("image too large")
	ErrBadScale       = errors.New("scale out of range")
	ErrExportDisabled = errors.New("export history disabled")
)
