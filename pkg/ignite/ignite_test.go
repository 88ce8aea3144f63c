package ignite_test

import (
	"context"
	"testing"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/iamNilotpal/ignite/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestInstanceSetGetDelete(t *testing.T) {
	dir := t.TempDir()

	db, err := ignite.NewInstance(context.Background(), "ignite-test", options.WithDataDir(dir))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set("hello", []byte("world")))

	got, err := db.Get("hello")
	require.NoError(t, err)
	require.Equal(t, []byte("world"), got)

	require.NoError(t, db.Delete("hello"))
	_, err = db.Get("hello")
	require.Error(t, err)
}

func TestInstanceCompact(t *testing.T) {
	dir := t.TempDir()

	db, err := ignite.NewInstance(context.Background(), "ignite-test", options.WithDataDir(dir))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set("a", []byte("1")))
	require.NoError(t, db.Set("a", []byte("2")))

	rewritten, err := db.Compact()
	require.NoError(t, err)
	require.Equal(t, 1, rewritten)

	got, err := db.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}
