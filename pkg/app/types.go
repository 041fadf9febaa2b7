package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// ImageTarget selects the image and, optionally, the inode a command works on
type ImageTarget struct {
	ImagePath string
	Inumber   types.Inumber
}

// Validate ensures the image target is usable
func (it *ImageTarget) Validate() error {
	if it.ImagePath == "" {
		return errors.New("image path is required")
	}
	if it.Inumber < 0 {
		return fmt.Errorf("inumber must not be negative, got %d", it.Inumber)
	}
	return nil
}

// String returns a string representation of the target
func (it *ImageTarget) String() string {
	if it.Inumber != 0 {
		return fmt.Sprintf("Image: %s (inode %d)", it.ImagePath, it.Inumber)
	}
	return "Image: " + it.ImagePath
}

// ProgressUpdate represents progress information
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// Rate calculates bytes per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeImageAccess    = "IMAGE_ACCESS"
	ErrCodeNotFormatted   = "NOT_FORMATTED"
	ErrCodeInodeNotFound  = "INODE_NOT_FOUND"
	ErrCodeNoSpace        = "NO_SPACE"
	ErrCodeCorrupt        = "CORRUPT"
	ErrCodeIO             = "IO_ERROR"
	ErrCodeInternal       = "INTERNAL"
	ErrCodeAlreadyMounted = "ALREADY_MOUNTED"
	ErrCodeNotMounted     = "NOT_MOUNTED"
	ErrCodeNoFreeInodes   = "NO_FREE_INODES"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapFSError maps a file system error to a CommonError with a matching code.
// nil stays nil and CommonErrors pass through unchanged.
func WrapFSError(message string, err error) error {
	if err == nil {
		return nil
	}
	var common *CommonError
	if errors.As(err, &common) {
		return err
	}
	return NewError(codeFor(err), message, err)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return ErrCodeInvalidInput
	case errors.Is(err, types.ErrInvalidInumber):
		return ErrCodeInodeNotFound
	case errors.Is(err, types.ErrCorruptSuperblock):
		return ErrCodeNotFormatted
	case errors.Is(err, types.ErrCorruptInode):
		return ErrCodeCorrupt
	case errors.Is(err, types.ErrNoSpace):
		return ErrCodeNoSpace
	case errors.Is(err, types.ErrNoFreeInodes):
		return ErrCodeNoFreeInodes
	case errors.Is(err, types.ErrAlreadyMounted):
		return ErrCodeAlreadyMounted
	case errors.Is(err, types.ErrNotMounted):
		return ErrCodeNotMounted
	case errors.Is(err, types.ErrIO):
		return ErrCodeIO
	default:
		return ErrCodeInternal
	}
}
