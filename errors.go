package ecomentor

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("ecomentor: no store configured")
	ErrStoreClosed     = errors.New("ecomentor: store closed")
	ErrMigrationFailed = errors.New("ecomentor: migration failed")

	// Not found errors.
	ErrJobNotFound    = errors.New("ecomentor: job not found")
	ErrBufferNotFound = errors.New("ecomentor: buffer not found")
	ErrNoHandler      = errors.New("ecomentor: no handler registered")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("ecomentor: job already exists")

	// State errors.
	ErrInvalidState       = errors.New("ecomentor: invalid state transition")
	ErrMaxRetriesExceeded = errors.New("ecomentor: max retries exceeded")

	// Wait errors.
	ErrWaitTimeout = errors.New("ecomentor: timed out waiting for job completion")
)
