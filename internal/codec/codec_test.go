package codec_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/iamNilotpal/ignite/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	key := []byte("alpha")
	value := []byte("1")

	encoded := codec.Encode(key, value, 1234567890)
	rec, n, err := codec.Decode(bytes.NewReader(encoded), int64(len(encoded)))
	require.NoError(t, err)
	require.Equal(t, int64(len(encoded)), n)
	require.Equal(t, uint64(1234567890), rec.Timestamp)
	require.Equal(t, key, rec.Key)
	require.Equal(t, value, rec.Value)
	require.False(t, rec.IsTombstone())
}

func TestEncodeTombstone(t *testing.T) {
	encoded := codec.Encode([]byte("k"), nil, 42)
	rec, _, err := codec.Decode(bytes.NewReader(encoded), int64(len(encoded)))
	require.NoError(t, err)
	require.True(t, rec.IsTombstone())
	require.Nil(t, rec.Value)
}

func TestDecodeDetectsCorruption(t *testing.T) {
	encoded := codec.Encode([]byte("k"), []byte("v"), 1)
	encoded[10] ^= 0xFF // flip a byte inside the timestamp field

	_, _, err := codec.Decode(bytes.NewReader(encoded), int64(len(encoded)))
	require.ErrorIs(t, err, codec.ErrCorruptRecord)
}

func TestDecodeDetectsTruncation(t *testing.T) {
	encoded := codec.Encode([]byte("k"), []byte("value"), 1)
	short := encoded[:len(encoded)-1]

	_, _, err := codec.Decode(bytes.NewReader(short), int64(len(short)))
	require.ErrorIs(t, err, codec.ErrTruncatedRecord)
}

func TestDecodeCleanEOF(t *testing.T) {
	_, _, err := codec.Decode(bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeRejectsLengthsExceedingRemainingWithoutAllocating(t *testing.T) {
	header := make([]byte, codec.HeaderSize)
	binary.LittleEndian.PutUint64(header[4:12], 1)
	binary.LittleEndian.PutUint32(header[12:16], 4)          // a plausible key_len
	binary.LittleEndian.PutUint32(header[16:20], 0xFFFFFFF0) // a corrupted, near-max value_len

	// remaining reflects only the bytes actually left in the file: far
	// short of what the declared value_len claims. Decode must reject
	// this as truncated before attempting to allocate ~4 GiB for it.
	_, _, err := codec.Decode(bytes.NewReader(header), int64(len(header)))
	require.ErrorIs(t, err, codec.ErrTruncatedRecord)
}

func TestEncodePanicsOnEmptyKey(t *testing.T) {
	require.Panics(t, func() {
		codec.Encode(nil, []byte("v"), 1)
	})
}
