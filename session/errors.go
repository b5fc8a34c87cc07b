package session

import (
	"github.com/go-faster/errors"
)

var (
	ErrorBusy            = errors.New("session is busy with another backend call")
	ErrorSessionNotFound = errors.New("session not found")
	ErrorStaleResult     = errors.New("circuit changed while the backend call was running")
	ErrorUnknownGate     = errors.New("unknown catalog entry")
)
