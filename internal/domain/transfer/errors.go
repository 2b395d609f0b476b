package transfer

import "errors"

var (
	ErrUnknownTarget = errors.New("unknown import target")
	ErrUnknownFormat = errors.New("unknown file format")
	ErrEmptyFile     = errors.New("file has no header row")
	ErrNoKnownColumn = errors.New("file has no recognized column")
)
