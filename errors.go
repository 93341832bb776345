package imlab

import "errors"

// Errors returned by the loader, the reporters and the transforms. Every
// failure is terminal: nothing is retried and no partial result is returned.
var (
	ErrDecode            = errors.New("imlab: cannot decode image")
	ErrIO                = errors.New("imlab: file access failed")
	ErrDivision          = errors.New("imlab: division by zero")
	ErrRange             = errors.New("imlab: channel index out of range")
	ErrUnsupportedFormat = errors.New("imlab: unsupported image format")
	ErrEmptyImage        = errors.New("imlab: empty image")
)
