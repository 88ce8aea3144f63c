package errors

// StorageError is a specialized error type for storage-related operations.
// It embeds baseError to inherit all the standard error functionality, then adds
// storage-specific fields that help pinpoint exactly where problems occurred.
type StorageError struct {
	*baseError
	offset   int    // Byte offset within the segment where the problem happened.
	fileName string // Name of the file that caused the issue.
	path     string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the StorageError type.
func (se *StorageError) WithDetail(key string, value any) *StorageError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Offset returns the byte offset within the segment where the error happened.
func (se *StorageError) Offset() int {
	return se.offset
}

// FileName returns the name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}

// NewWriterLockError creates the error returned when Open finds the
// database directory already locked by another process.
func NewWriterLockError(path string, cause error) *StorageError {
	return NewStorageError(
		cause, ErrorCodeWriterLocked, "database is locked by another process",
	).WithPath(path).WithDetail("lockFile", "db.lock")
}

// NewCorruptRecordError creates the error returned when a record's CRC
// fails to verify during recovery replay. Value reads do not re-check the CRC.
func NewCorruptRecordError(cause error, fileName string, offset int) *StorageError {
	return NewStorageError(
		cause, ErrorCodeSegmentCorrupted, "record failed checksum verification",
	).WithFileName(fileName).WithOffset(offset)
}

// NewTruncatedRecordError creates the error returned when a record's
// declared length runs past the end of its file.
func NewTruncatedRecordError(cause error, fileName string, offset int) *StorageError {
	return NewStorageError(
		cause, ErrorCodeTruncatedRecord, "record truncated at end of file",
	).WithFileName(fileName).WithOffset(offset)
}
