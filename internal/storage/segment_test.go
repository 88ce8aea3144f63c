package storage

import (
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/ignite/internal/codec"
	"github.com/iamNilotpal/ignite/pkg/seginfo"
	"github.com/stretchr/testify/require"
)

func TestCreateActiveAppendAndReadValue(t *testing.T) {
	dir := t.TempDir()

	seg, err := CreateActive(dir, 1)
	require.NoError(t, err)
	defer seg.Close()

	record := codec.Encode([]byte("hello"), []byte("world"), 100)
	valuePos, err := seg.Append(record)
	require.NoError(t, err)
	require.Equal(t, uint64(codec.HeaderSize+len("hello")), valuePos)

	got, err := seg.ReadValue(valuePos, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), got)
	require.Equal(t, int64(len(record)), seg.Size())
}

func TestCreateActiveRejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()

	seg, err := CreateActive(dir, 1)
	require.NoError(t, err)
	defer seg.Close()

	_, err = CreateActive(dir, 1)
	require.Error(t, err)
}

func TestSealRenamesFileAndBlocksFurtherAppends(t *testing.T) {
	dir := t.TempDir()

	seg, err := CreateActive(dir, 7)
	require.NoError(t, err)

	record := codec.Encode([]byte("k"), []byte("v"), 1)
	_, err = seg.Append(record)
	require.NoError(t, err)

	sealedPath, err := seg.Seal()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, seginfo.SealedName(7)), sealedPath)
	require.True(t, seg.Sealed())

	_, err = seg.Append(record)
	require.Error(t, err)
}

func TestOpenSealedIsReadOnly(t *testing.T) {
	dir := t.TempDir()

	seg, err := CreateActive(dir, 9)
	require.NoError(t, err)
	record := codec.Encode([]byte("k"), []byte("v"), 1)
	_, err = seg.Append(record)
	require.NoError(t, err)
	sealedPath, err := seg.Seal()
	require.NoError(t, err)

	reopened, err := OpenSealed(sealedPath, 9)
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, reopened.Sealed())
	require.Equal(t, int64(len(record)), reopened.Size())
}

func TestReadValueOfTombstoneIsEmpty(t *testing.T) {
	dir := t.TempDir()
	seg, err := CreateActive(dir, 3)
	require.NoError(t, err)
	defer seg.Close()

	record := codec.Encode([]byte("k"), nil, 5)
	_, err = seg.Append(record)
	require.NoError(t, err)

	got, err := seg.ReadValue(0, 0)
	require.NoError(t, err)
	require.Nil(t, got)
}
