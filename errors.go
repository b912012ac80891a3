package meshkit

import (
	"errors"

	"meshkit/internal/errs"
)

// ErrInvalidData is the sentinel every format-level parse error wraps, so
// callers can distinguish "the file is malformed" from an I/O failure
// with errors.Is(err, meshkit.ErrInvalidData), matching §6's "error
// channel" contract (an InvalidData-flavored kind plus a located,
// human-readable message).
var ErrInvalidData = errs.ErrInvalidData

// ErrUnrecognizedFormat is returned by Load when auto-detection cannot
// identify the file as STL, OBJ, or COLLADA.
var ErrUnrecognizedFormat = errors.New("unrecognized mesh file format")
