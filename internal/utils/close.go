package utils

import (
	"errors"
	"io"
)

// Close closes c and ignores any error.
// Use for read-only handles where a close failure loses nothing.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseInto closes c and joins any close error into *errp. Use it in a
// defer with a named error result.
func CloseInto(c io.Closer, errp *error) {
	if cerr := c.Close(); cerr != nil {
		*errp = errors.Join(*errp, cerr)
	}
}
