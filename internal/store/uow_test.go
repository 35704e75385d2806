package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitOfWork_RepositoriesBeforeBegin(t *testing.T) {
	u := &UnitOfWork{}

	_, err := u.Asteroids()
	assert.ErrorIs(t, err, ErrUnitNotStarted)

	_, err = u.Approaches()
	assert.ErrorIs(t, err, ErrUnitNotStarted)

	_, err = u.Threats()
	assert.ErrorIs(t, err, ErrUnitNotStarted)
}

func TestUnitOfWork_CommitRollbackBeforeBegin(t *testing.T) {
	u := &UnitOfWork{}
	assert.ErrorIs(t, u.Commit(), ErrUnitNotStarted)
	assert.ErrorIs(t, u.Rollback(), ErrUnitNotStarted)
	assert.NotPanics(t, u.Close)
}
