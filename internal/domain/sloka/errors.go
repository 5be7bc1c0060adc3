package sloka

import "github.com/cockroachdb/errors"

// ErrNotFound is returned by content sources when a collection or verse does not exist.
var ErrNotFound = errors.New("not found")
