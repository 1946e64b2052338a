package raycast

import "errors"

// Validation failures are reported as wrapped sentinels so callers
// can branch with errors.Is. They are raised before any index work:
// a failed call leaves the scene untouched and usable.
var (
	// ErrShapeMismatch reports a tensor whose rank or trailing
	// dimension does not fit the operation.
	ErrShapeMismatch = errors.New("raycast: shape mismatch")

	// ErrDtypeMismatch reports a tensor with the wrong element type.
	ErrDtypeMismatch = errors.New("raycast: dtype mismatch")

	// ErrDeviceMismatch reports a tensor whose storage the engine
	// cannot access directly.
	ErrDeviceMismatch = errors.New("raycast: device mismatch")

	// ErrCapacityExceeded reports a surface with more vertices than
	// the 32-bit id space can address.
	ErrCapacityExceeded = errors.New("raycast: capacity exceeded")
)
