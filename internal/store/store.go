package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned for lookups of entities that do not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence entry point: read-side repository accessors
// bound to the shared connection pool, plus transactional units of work
// for the reconciliation writes.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks database connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Asteroids returns a read-side asteroid repository outside any transaction.
func (s *Store) Asteroids() *AsteroidRepo {
	return &AsteroidRepo{db: s.db}
}

// Approaches returns a read-side close-approach repository outside any transaction.
func (s *Store) Approaches() *ApproachRepo {
	return &ApproachRepo{db: s.db}
}

// Threats returns a read-side threat-assessment repository outside any transaction.
func (s *Store) Threats() *ThreatRepo {
	return &ThreatRepo{db: s.db}
}

// NewUnit creates an un-begun unit of work over the store's connection.
func (s *Store) NewUnit() *UnitOfWork {
	return &UnitOfWork{db: s.db}
}

// WithUnit runs fn inside one unit of work: begin, commit when fn returns
// nil, rollback otherwise. The session is always released.
func (s *Store) WithUnit(ctx context.Context, fn func(u *UnitOfWork) error) error {
	u := s.NewUnit()
	if err := u.Begin(ctx); err != nil {
		return err
	}
	defer u.Close()

	if err := fn(u); err != nil {
		if rbErr := u.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return u.Commit()
}
