package main

import (
	pkgerrors "github.com/iamNilotpal/ignite/pkg/errors"
)

// Exit codes for the ignite CLI, per the external-interface contract:
// 0 success, 1 key not found, 2 validation errors (bad input), 3 writer
// lock held by another process, 4 corruption or other I/O failure.
const (
	exitSuccess      = 0
	exitKeyNotFound  = 1
	exitValidation   = 2
	exitWriterLocked = 3
	exitIOOrCorrupt  = 4
)

func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}

	if pkgerrors.IsValidationError(err) {
		return exitValidation
	}
	if pkgerrors.IsIndexError(err) {
		return exitKeyNotFound
	}
	if storageErr, ok := pkgerrors.AsStorageError(err); ok {
		if storageErr.Code() == pkgerrors.ErrorCodeWriterLocked {
			return exitWriterLocked
		}
		return exitIOOrCorrupt
	}

	return exitIOOrCorrupt
}
