package upload

import "errors"

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = errors.New("file too large")
	ErrBackend  = errors.New("upload failed")
)
