package dispatch

// Error is a domain error with a stable machine-readable code. The API layer
// maps codes onto HTTP statuses; the engine never exposes raw storage errors
// for expected failure modes.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidUser         = &Error{Code: "INVALID_USER", Message: "user does not exist"}
	ErrInvalidDrone        = &Error{Code: "INVALID_DRONE", Message: "drone does not exist or does not match"}
	ErrInvalidHive         = &Error{Code: "INVALID_HIVE", Message: "drone has no hive assigned"}
	ErrDroneNotAvailable   = &Error{Code: "DRONE_NOT_AVAILABLE", Message: "drone is not available for this trip"}
	ErrUserAlreadyHasDrone = &Error{Code: "USER_ALREADY_HAS_DRONE", Message: "user already holds a drone"}
	ErrSameStartAndEnd     = &Error{Code: "SAME_START_AND_END_LOCATION", Message: "destination equals the hive location"}
	ErrInvalidDroneState   = &Error{Code: "INVALID_DRONE_STATE", Message: "drone is not in a state that allows this operation"}
	ErrBatteryOutOfRange   = &Error{Code: "OUT_OF_RANGE_BATTERY", Message: "battery must be between 0 and 100"}
)
