package types

import (
	"errors"
	"fmt"
)

// Error kinds returned by file system operations. Compare with errors.Is.
var (
	// ErrNotMounted is returned by file operations before a successful mount.
	ErrNotMounted = errors.New("file system not mounted")

	// ErrInvalidInumber is returned for an inumber out of range or not in use.
	ErrInvalidInumber = errors.New("invalid inumber")

	// ErrInvalidArgument covers empty buffers, negative offsets, writes past the
	// end of file and ranges beyond the maximum file size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyMounted is returned by format and mount on a mounted instance.
	ErrAlreadyMounted = errors.New("file system already mounted")

	// ErrCorruptSuperblock is returned by mount when block 0 does not describe this device.
	ErrCorruptSuperblock = errors.New("corrupt superblock")

	// ErrCorruptInode is returned when an inode references a block outside the device.
	ErrCorruptInode = errors.New("corrupt inode")

	// ErrNoSpace is returned alongside a short write when no free block is left.
	ErrNoSpace = errors.New("no free blocks")

	// ErrNoFreeInodes is returned by create when every inode slot is in use.
	ErrNoFreeInodes = errors.New("no free inodes")

	// ErrIO wraps a failure reported by the block device.
	ErrIO = errors.New("device I/O error")
)

// FSError describes a failed file system operation.
type FSError struct {
	// Op is the operation that failed (format, mount, read, ...).
	Op string

	// Inumber is the inode involved, or 0 when not applicable.
	Inumber Inumber

	// Kind is one of the Err* values above.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

func (e *FSError) Error() string {
	msg := e.Op
	if e.Inumber != 0 {
		msg = fmt.Sprintf("%s inode %d", msg, e.Inumber)
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FSError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError creates a new FSError
func NewError(op string, inumber Inumber, kind error, cause error) *FSError {
	return &FSError{
		Op:      op,
		Inumber: inumber,
		Kind:    kind,
		Err:     cause,
	}
}

// KindOf returns the error kind carried by err, or nil when err is not an FSError.
func KindOf(err error) error {
	var fsErr *FSError
	if errors.As(err, &fsErr) {
		return fsErr.Kind
	}
	return nil
}
