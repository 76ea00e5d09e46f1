package storage

import "errors"

var (
	ErrMintNotFound = errors.New("mint not found")
	ErrorNoSuchKey  = errors.New("no such key")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidPath     = errors.New("path escapes gallery root")
)
