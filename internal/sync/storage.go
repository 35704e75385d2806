package sync

import (
	"context"
	"errors"
	"time"

	"github.com/orbitwatch/neo-data-service/internal/domain"
	"github.com/orbitwatch/neo-data-service/internal/store"
)

// Storage is the narrow persistence surface the service needs: one unit of
// work per record.
type Storage interface {
	WithUnit(ctx context.Context, fn func(u Unit) error) error
}

// Unit exposes the transaction-bound repositories.
type Unit interface {
	Asteroids() (AsteroidRepo, error)
	Approaches() (ApproachRepo, error)
	Threats() (ThreatRepo, error)
}

type AsteroidRepo interface {
	GetByDesignation(designation string) (*domain.Asteroid, error)
	Create(a *domain.Asteroid) error
	Save(a *domain.Asteroid) error
	DesignationIDs() (map[string]uint, error)
}

type ApproachRepo interface {
	GetByNaturalKey(asteroidID uint, at time.Time) (*domain.CloseApproach, error)
	Create(a *domain.CloseApproach) error
	Save(a *domain.CloseApproach) error
}

type ThreatRepo interface {
	GetByDesignation(designation string) (*domain.ThreatAssessment, error)
	Create(t *domain.ThreatAssessment) error
	Save(t *domain.ThreatAssessment) error
	MarkStaleExcept(seen []string) (int64, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// GormStorage adapts *store.Store to the Storage interface.
type GormStorage struct {
	store *store.Store
}

// NewStorage wraps the gorm-backed store.
func NewStorage(s *store.Store) GormStorage {
	return GormStorage{store: s}
}

func (g GormStorage) WithUnit(ctx context.Context, fn func(u Unit) error) error {
	return g.store.WithUnit(ctx, func(u *store.UnitOfWork) error {
		return fn(gormUnit{u})
	})
}

type gormUnit struct {
	u *store.UnitOfWork
}

func (g gormUnit) Asteroids() (AsteroidRepo, error)  { return g.u.Asteroids() }
func (g gormUnit) Approaches() (ApproachRepo, error) { return g.u.Approaches() }
func (g gormUnit) Threats() (ThreatRepo, error)      { return g.u.Threats() }
