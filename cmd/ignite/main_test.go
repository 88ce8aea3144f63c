package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutAskRemoveViaCLI(t *testing.T) {
	dir := t.TempDir()

	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "put", "--key", "k", "--value", "v"}))
	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "ask", "--key", "k"}))
	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "remove", "--key", "k"}))
	require.Equal(t, exitKeyNotFound, run([]string{"--dir", dir, "ask", "--key", "k"}))
}

func TestPutRejectsEmptyValue(t *testing.T) {
	dir := t.TempDir()

	require.Equal(t, exitValidation, run([]string{"--dir", dir, "put", "--key", "k", "--value", ""}))
}

func TestCompactViaCLI(t *testing.T) {
	dir := t.TempDir()

	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "put", "--key", "k", "--value", "v1"}))
	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "put", "--key", "k", "--value", "v2"}))
	require.Equal(t, exitSuccess, run([]string{"--dir", dir, "compact"}))
}
