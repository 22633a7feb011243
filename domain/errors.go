package domain

import "errors"

// ErrNotPost indicates that a notification does not reference post content
// and therefore has no canonical event representation.
var ErrNotPost = errors.New("notification is not a post")
