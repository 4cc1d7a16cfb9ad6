package session

import "github.com/xraph/cohesion/internal/errors"

// ErrEnded is returned by a Session used after End.
var ErrEnded = errors.New("session has ended")
