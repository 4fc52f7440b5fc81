// Package dispatch implements the drone assignment engine and the matching
// handshake: trip feasibility, exclusive drone allocation, and the drone
// status transitions around a trip's lifecycle.
package dispatch

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"drone-dispatch-backend/internal/geo"
	"drone-dispatch-backend/internal/model"
	"drone-dispatch-backend/internal/store"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// Ticket is the result of a successful assignment.
type Ticket struct {
	DroneID    int64
	ETAMinutes int
	Distance   string
}

// MatchResult is the result of a successful device handshake: the dock's
// network address for the device's control channel.
type MatchResult struct {
	DroneID int64
	HiveIP  string
}

// Engine allocates drones to callers and drives the drone state machine.
// Every operation takes the caller's already-authenticated phone number
// explicitly; the engine holds no request-scoped state.
type Engine struct {
	store store.Store
	locks *droneLocks
}

// NewEngine creates an assignment engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s, locks: newDroneLocks()}
}

// Assign reserves the requested drone for one trip from its hive to end.
// The availability and battery check runs under the drone's exclusive lock in
// the same transaction as the RESERVED transition, so two concurrent callers
// can never both claim one drone.
func (e *Engine) Assign(ctx context.Context, callerPhone string, droneID int64, end Location) (*Ticket, error) {
	user, err := e.userByPhone(ctx, callerPhone)
	if err != nil {
		return nil, err
	}
	drone, err := e.droneByID(ctx, droneID)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.AssignmentForUser(ctx, user.ID); err == nil {
		return nil, ErrUserAlreadyHasDrone
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// An undocked drone has no launch point and cannot serve a trip.
	if drone.Hive == nil {
		return nil, ErrDroneNotAvailable
	}
	hive := drone.Hive
	if end.Lat == hive.Lat && end.Lng == hive.Lng {
		return nil, ErrSameStartAndEnd
	}

	distance := geo.DistanceMeters(hive.Lat, hive.Lng, end.Lat, end.Lng)
	required := geo.RequiredBattery(distance)

	a := &model.Assignment{
		DroneID:  drone.ID,
		UserID:   user.ID,
		StartLat: hive.Lat,
		StartLng: hive.Lng,
		EndLat:   end.Lat,
		EndLng:   end.Lng,
		Status:   model.AssignmentTemporary,
	}

	unlock := e.locks.acquire(drone.ID)
	defer unlock()

	if err := e.store.ReserveDrone(ctx, a, required); err != nil {
		return nil, mapStoreErr(err, ErrInvalidDrone)
	}

	return &Ticket{
		DroneID:    drone.ID,
		ETAMinutes: geo.EstimatedMinutes(distance),
		Distance:   geo.FormatDistance(distance),
	}, nil
}

// Cancel abandons a reservation before the handshake. The drone returns to
// AVAILABLE and the caller's claim disappears; a retried cancel finds no
// assignment and fails with InvalidDrone.
func (e *Engine) Cancel(ctx context.Context, callerPhone string, droneID int64) error {
	return e.release(ctx, callerPhone, droneID, model.DroneReserved)
}

// End completes an in-flight trip, returning the drone to AVAILABLE and
// deleting the caller's claim.
func (e *Engine) End(ctx context.Context, callerPhone string, droneID int64) error {
	return e.release(ctx, callerPhone, droneID, model.DroneInUse)
}

func (e *Engine) release(ctx context.Context, callerPhone string, droneID int64, from model.DroneStatus) error {
	user, err := e.userByPhone(ctx, callerPhone)
	if err != nil {
		return err
	}
	if _, err := e.droneByID(ctx, droneID); err != nil {
		return err
	}
	a, err := e.store.AssignmentForUserAndDrone(ctx, user.ID, droneID)
	if err != nil {
		return mapStoreErr(err, ErrInvalidDrone)
	}

	unlock := e.locks.acquire(droneID)
	defer unlock()

	return mapStoreErr(e.store.ReleaseDrone(ctx, a, from), ErrInvalidDrone)
}

// Match validates the physical device's security code against the reserved
// drone and flips it to IN_USE, handing back the dock address so the device
// can open its control channel. A code mismatch never mutates state. The
// whole check-and-transition runs under the drone's key lock, and
// ActivateDrone re-verifies the caller's assignment inside its transaction,
// so a reservation that changes hands between the reads and the activation
// fails for the stale caller instead of hijacking the new holder's drone.
func (e *Engine) Match(ctx context.Context, callerPhone string, droneID int64, deviceCode int) (*MatchResult, error) {
	user, err := e.userByPhone(ctx, callerPhone)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(droneID)
	defer unlock()

	drone, err := e.droneByID(ctx, droneID)
	if err != nil {
		return nil, err
	}
	if drone.Status != model.DroneReserved {
		return nil, ErrInvalidDrone
	}
	if _, err := e.store.AssignmentForUserAndDrone(ctx, user.ID, droneID); err != nil {
		return nil, mapStoreErr(err, ErrInvalidDrone)
	}
	if drone.Hive == nil {
		return nil, ErrInvalidHive
	}
	if drone.Code != deviceCode {
		return nil, ErrInvalidDrone
	}

	if err := e.store.ActivateDrone(ctx, user.ID, droneID); err != nil {
		return nil, mapStoreErr(err, ErrInvalidDrone)
	}
	return &MatchResult{DroneID: drone.ID, HiveIP: drone.Hive.IP}, nil
}

// UpdateBattery is the telemetry feed's entry point. It overwrites the
// battery reading without touching the state machine.
func (e *Engine) UpdateBattery(ctx context.Context, droneID int64, battery int) error {
	if battery < 0 || battery > 100 {
		return ErrBatteryOutOfRange
	}
	return mapStoreErr(e.store.SetDroneBattery(ctx, droneID, battery), ErrInvalidDrone)
}

func (e *Engine) userByPhone(ctx context.Context, phone string) (*model.User, error) {
	u, err := e.store.UserByPhone(ctx, phone)
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidUser)
	}
	return u, nil
}

func (e *Engine) droneByID(ctx context.Context, id int64) (*model.Drone, error) {
	d, err := e.store.DroneByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, ErrInvalidDrone)
	}
	return d, nil
}

// mapStoreErr translates storage outcomes into the domain taxonomy. notFound
// names the entity a missing row stands for at this call site.
func mapStoreErr(err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, store.ErrDroneUnavailable):
		return ErrDroneNotAvailable
	case errors.Is(err, store.ErrUserBusy):
		return ErrUserAlreadyHasDrone
	}
	var invalid *model.InvalidTransitionError
	if errors.As(err, &invalid) {
		return ErrInvalidDroneState
	}
	return err
}
