package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drone-dispatch-backend/internal/model"
)

// Sentinel errors for state-conflict outcomes of the transactional
// primitives. Lookup misses pass through as gorm.ErrRecordNotFound.
var (
	// ErrDroneUnavailable means the drone failed the in-transaction
	// availability or battery check.
	ErrDroneUnavailable = errors.New("store: drone unavailable")
	// ErrUserBusy means the user already holds an assignment.
	ErrUserBusy = errors.New("store: user already has an assignment")
)

// Store defines the interface for all database operations: the hive/drone
// directory, the assignment catalog, and user settings.
type Store interface {
	DB() *gorm.DB

	CreateUser(ctx context.Context, u *model.User) error
	SaveUser(ctx context.Context, u *model.User) error
	UserByPhone(ctx context.Context, phone string) (*model.User, error)

	CreateHive(ctx context.Context, h *model.Hive) error
	HiveByID(ctx context.Context, id int64) (*model.Hive, error)
	ListHives(ctx context.Context) ([]model.Hive, error)

	CreateDrone(ctx context.Context, d *model.Drone) error
	DroneByID(ctx context.Context, id int64) (*model.Drone, error)
	SetDroneBattery(ctx context.Context, id int64, battery int) error

	AssignmentForUser(ctx context.Context, userID int64) (*model.Assignment, error)
	AssignmentForUserAndDrone(ctx context.Context, userID, droneID int64) (*model.Assignment, error)

	ReserveDrone(ctx context.Context, a *model.Assignment, requiredBattery int) error
	ActivateDrone(ctx context.Context, userID, droneID int64) error
	ReleaseDrone(ctx context.Context, a *model.Assignment, from model.DroneStatus) error

	CountGuardians(ctx context.Context, userID int64) (int64, error)
	CreateGuardian(ctx context.Context, g *model.Guardian) error
	GuardiansForUser(ctx context.Context, userID int64) ([]model.Guardian, error)
	GuardianForUser(ctx context.Context, id, userID int64) (*model.Guardian, error)
	SaveGuardian(ctx context.Context, g *model.Guardian) error
	DeleteGuardian(ctx context.Context, g *model.Guardian) error

	UpsertSubscription(ctx context.Context, s *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// forUpdate applies a row-level write lock on dialects that support one.
// SQLite has no row locks; its single-writer transaction model already
// serializes the check-and-transition.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *gormStore) SaveUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *gormStore) UserByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) CreateHive(ctx context.Context, h *model.Hive) error {
	return s.db.WithContext(ctx).Create(h).Error
}

func (s *gormStore) HiveByID(ctx context.Context, id int64) (*model.Hive, error) {
	var h model.Hive
	if err := s.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *gormStore) ListHives(ctx context.Context) ([]model.Hive, error) {
	var hives []model.Hive
	if err := s.db.WithContext(ctx).Preload("Drones").Find(&hives).Error; err != nil {
		return nil, err
	}
	return hives, nil
}

func (s *gormStore) CreateDrone(ctx context.Context, d *model.Drone) error {
	return s.db.WithContext(ctx).Create(d).Error
}

// DroneByID loads a drone together with its dock, if any.
func (s *gormStore) DroneByID(ctx context.Context, id int64) (*model.Drone, error) {
	var d model.Drone
	if err := s.db.WithContext(ctx).Preload("Hive").First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *gormStore) SetDroneBattery(ctx context.Context, id int64, battery int) error {
	res := s.db.WithContext(ctx).Model(&model.Drone{}).Where("id = ?", id).
		Update("battery", battery)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) AssignmentForUser(ctx context.Context, userID int64) (*model.Assignment, error) {
	var a model.Assignment
	if err := s.db.WithContext(ctx).First(&a, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormStore) AssignmentForUserAndDrone(ctx context.Context, userID, droneID int64) (*model.Assignment, error) {
	var a model.Assignment
	if err := s.db.WithContext(ctx).First(&a, "user_id = ? AND drone_id = ?", userID, droneID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ReserveDrone atomically claims a drone: under a write lock on the drone row
// it re-checks availability and battery, re-checks that the user holds no
// other assignment, transitions the drone to RESERVED and persists the
// assignment. Any failed check aborts the whole transaction.
func (s *gormStore) ReserveDrone(ctx context.Context, a *model.Assignment, requiredBattery int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.Drone
		if err := forUpdate(tx).First(&d, a.DroneID).Error; err != nil {
			return err
		}
		if d.Status != model.DroneAvailable || d.Battery < requiredBattery {
			return ErrDroneUnavailable
		}

		var held int64
		if err := tx.Model(&model.Assignment{}).Where("user_id = ?", a.UserID).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return ErrUserBusy
		}

		if err := tx.Model(&d).Update("status", model.DroneReserved).Error; err != nil {
			return fmt.Errorf("reserve drone %d: %w", d.ID, err)
		}
		if err := tx.Create(a).Error; err != nil {
			return fmt.Errorf("create assignment for drone %d: %w", d.ID, err)
		}
		return nil
	})
}

// ActivateDrone promotes a reserved drone to in-flight under a write lock.
// The caller's assignment is re-verified inside the transaction so a
// reservation that changed hands since the handshake's pre-checks can no
// longer be activated by the stale caller. A drone in any other state yields
// an InvalidTransitionError; a missing assignment yields ErrRecordNotFound.
func (s *gormStore) ActivateDrone(ctx context.Context, userID, droneID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.Drone
		if err := forUpdate(tx).First(&d, droneID).Error; err != nil {
			return err
		}
		if d.Status != model.DroneReserved {
			return &model.InvalidTransitionError{From: d.Status, To: model.DroneInUse}
		}

		var held int64
		if err := tx.Model(&model.Assignment{}).
			Where("user_id = ? AND drone_id = ?", userID, droneID).
			Count(&held).Error; err != nil {
			return err
		}
		if held == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&d).Update("status", model.DroneInUse).Error
	})
}

// ReleaseDrone returns a drone to AVAILABLE and deletes its assignment in one
// transaction. The drone must currently be in the given state; cancellation
// releases from RESERVED, trip completion from IN_USE.
func (s *gormStore) ReleaseDrone(ctx context.Context, a *model.Assignment, from model.DroneStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.Drone
		if err := forUpdate(tx).First(&d, a.DroneID).Error; err != nil {
			return err
		}
		if d.Status != from {
			return &model.InvalidTransitionError{From: d.Status, To: model.DroneAvailable}
		}
		if err := tx.Model(&d).Update("status", model.DroneAvailable).Error; err != nil {
			return fmt.Errorf("release drone %d: %w", d.ID, err)
		}
		res := tx.Delete(&model.Assignment{}, a.ID)
		if res.Error != nil {
			return fmt.Errorf("delete assignment %d: %w", a.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
