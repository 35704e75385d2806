package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrUnitNotStarted is returned when a repository is requested before the
// unit of work has begun, or after it finished.
var ErrUnitNotStarted = errors.New("unit of work not started")

// UnitOfWork owns one database transaction and lazily-constructed,
// transaction-bound repositories. Commit and Rollback clear the cached
// repositories so stale session bindings cannot leak into later use.
type UnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB

	asteroids  *AsteroidRepo
	approaches *ApproachRepo
	threats    *ThreatRepo
}

// Begin starts the transaction.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("unit of work already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

// Commit persists pending changes and clears the cached repositories.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return ErrUnitNotStarted
	}
	err := u.tx.Commit().Error
	u.reset()
	return err
}

// Rollback discards pending changes and clears the cached repositories.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return ErrUnitNotStarted
	}
	err := u.tx.Rollback().Error
	u.reset()
	return err
}

// Close rolls back a still-open transaction. Safe to defer unconditionally;
// after Commit or Rollback it is a no-op.
func (u *UnitOfWork) Close() {
	if u.tx == nil {
		return
	}
	u.tx.Rollback()
	u.reset()
}

func (u *UnitOfWork) reset() {
	u.tx = nil
	u.asteroids = nil
	u.approaches = nil
	u.threats = nil
}

// Asteroids returns the transaction-bound asteroid repository.
func (u *UnitOfWork) Asteroids() (*AsteroidRepo, error) {
	if u.tx == nil {
		return nil, ErrUnitNotStarted
	}
	if u.asteroids == nil {
		u.asteroids = &AsteroidRepo{db: u.tx}
	}
	return u.asteroids, nil
}

// Approaches returns the transaction-bound close-approach repository.
func (u *UnitOfWork) Approaches() (*ApproachRepo, error) {
	if u.tx == nil {
		return nil, ErrUnitNotStarted
	}
	if u.approaches == nil {
		u.approaches = &ApproachRepo{db: u.tx}
	}
	return u.approaches, nil
}

// Threats returns the transaction-bound threat-assessment repository.
func (u *UnitOfWork) Threats() (*ThreatRepo, error) {
	if u.tx == nil {
		return nil, ErrUnitNotStarted
	}
	if u.threats == nil {
		u.threats = &ThreatRepo{db: u.tx}
	}
	return u.threats, nil
}
