package link

import "errors"

var (
	// ErrResourceQuery indicates firmware failed to enumerate or report resources.
	ErrResourceQuery = errors.New("resource query failed")
	// ErrInvalidCurrentResource is returned in strict mode when firmware
	// reports no current line for an enabled link.
	ErrInvalidCurrentResource = errors.New("invalid current resource")
	// ErrAllocationFailed indicates firmware rejected the chosen line.
	ErrAllocationFailed = errors.New("allocation failed")
	// ErrInvalidIndex is returned for any line index other than 0.
	ErrInvalidIndex = errors.New("invalid line index")
	// ErrNoLineAssigned is returned when a link ends allocation without a line.
	ErrNoLineAssigned = errors.New("no line assigned")
	// ErrNotInitialized is returned when releasing a link that was never allocated.
	ErrNotInitialized = errors.New("link not initialized")
	// ErrNotReferenced is returned when releasing a link with no consumers.
	ErrNotReferenced = errors.New("link not referenced")
	// ErrUnknownLink is returned for IDs not present in the registry.
	ErrUnknownLink = errors.New("unknown link")
	// ErrAlreadyRegistered is returned when a handle is registered twice.
	ErrAlreadyRegistered = errors.New("link already registered")
	// ErrPenaltiesInitialized is returned by a second InitPenalties call.
	ErrPenaltiesInitialized = errors.New("penalties already initialized")
)

// Error records the operation and link that failed.
type Error struct {
	Op   string
	Link string
	Err  error
}

func (e *Error) Error() string {
	if e.Link != "" {
		return e.Op + " " + e.Link + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
