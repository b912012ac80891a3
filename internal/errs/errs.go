// Package errs holds the sentinel error every format core wraps, shared
// here (rather than in the package root) so the format cores can import
// it without creating an import cycle back through the root package.
package errs

import "errors"

// ErrInvalidData is the sentinel every format-level parse error wraps.
var ErrInvalidData = errors.New("invalid data")
