package grid

import (
	"github.com/go-faster/errors"
)

var (
	ErrorPlacementConflict = errors.New("placement conflict")
	ErrorIncompatibleLayer = errors.New("incompatible layer")
	ErrorInvalidWirePair   = errors.New("invalid wire pair")
	ErrorBoundsExceeded    = errors.New("bounds exceeded")
	ErrorLayerNotEmpty     = errors.New("layer not empty")
	ErrorGateNotFound      = errors.New("gate not found")
)

// IsRejection reports whether err is a local validation rejection that left the grid untouched.
func IsRejection(err error) bool {
	for _, e := range []error{
		ErrorPlacementConflict,
		ErrorIncompatibleLayer,
		ErrorInvalidWirePair,
		ErrorBoundsExceeded,
		ErrorLayerNotEmpty,
		ErrorGateNotFound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
