package arm

import "github.com/pkg/errors"

// Error taxonomy of the motion core. Callers wrap these with context and
// match them with errors.Is.
var (
	// ErrInvalidArgument is a contract violation such as a nil profile
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnreachable means inverse kinematics put a joint outside its range
	ErrUnreachable = errors.New("unreachable")

	// ErrInfeasibleAcceleration means a move cannot finish within the
	// fixed duration at the fixed acceleration
	ErrInfeasibleAcceleration = errors.New("acceleration too low")

	// ErrUnknownCommand means a line is not valid in the current mode
	ErrUnknownCommand = errors.New("unknown command")
)
