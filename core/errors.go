package core

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	ErrorExternalServiceFailure = errors.New("external service failure")
	ErrorExternalServiceTimeout = errors.New("external service timeout")
)

// ExternalError classifies a failed backend call. A deadline hit on ctx is a
// timeout, everything else is a failure.
func ExternalError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, ErrorExternalServiceFailure) || errors.Is(err, ErrorExternalServiceTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(ErrorExternalServiceTimeout, "%s/reason:%s", msg, err)
	}
	return errors.Wrapf(ErrorExternalServiceFailure, "%s/reason:%s", msg, err)
}
