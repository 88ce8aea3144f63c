package lock_test

import (
	"testing"

	"github.com/iamNilotpal/ignite/internal/lock"
	pkgerrors "github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	l1, err := lock.Acquire(dir, "db.lock", log)
	require.NoError(t, err)

	require.NoError(t, l1.Release())

	l2, err := lock.Acquire(dir, "db.lock", log)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestSecondAcquireFailsWhileHeld(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	l1, err := lock.Acquire(dir, "db.lock", log)
	require.NoError(t, err)
	defer l1.Release()

	_, err = lock.Acquire(dir, "db.lock", log)
	require.Error(t, err)

	storageErr, ok := pkgerrors.AsStorageError(err)
	require.True(t, ok)
	require.Equal(t, pkgerrors.ErrorCodeWriterLocked, storageErr.Code())
}
