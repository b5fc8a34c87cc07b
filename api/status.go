package api

import (
	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/grid"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/qgrid-team/qgrid/noise"
	"github.com/qgrid-team/qgrid/scheduler"
	"github.com/qgrid-team/qgrid/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeTable = []struct {
	err  error
	code codes.Code
}{
	{session.ErrorSessionNotFound, codes.NotFound},
	{grid.ErrorGateNotFound, codes.NotFound},
	{grid.ErrorPlacementConflict, codes.InvalidArgument},
	{grid.ErrorIncompatibleLayer, codes.InvalidArgument},
	{grid.ErrorInvalidWirePair, codes.InvalidArgument},
	{grid.ErrorBoundsExceeded, codes.OutOfRange},
	{grid.ErrorLayerNotEmpty, codes.FailedPrecondition},
	{session.ErrorUnknownGate, codes.InvalidArgument},
	{session.ErrorBusy, codes.FailedPrecondition},
	{session.ErrorStaleResult, codes.Aborted},
	{noise.ErrorSyntax, codes.InvalidArgument},
	{noise.ErrorShape, codes.InvalidArgument},
	{noise.ErrorIncompletion, codes.InvalidArgument},
	{ir.ErrorMalformedIR, codes.InvalidArgument},
	{scheduler.ErrorQueueFull, codes.ResourceExhausted},
	{core.ErrorExternalServiceTimeout, codes.DeadlineExceeded},
	{core.ErrorExternalServiceFailure, codes.Unavailable},
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	for _, c := range codeTable {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return codes.Internal
}

// toStatus converts a domain error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeOf(err), err.Error())
}
