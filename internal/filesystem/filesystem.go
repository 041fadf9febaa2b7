// Package filesystem implements a small inode file system on top of a block device.
//
// Block 0 holds the superblock, the following tenth of the device holds the inode
// table and the rest holds file data and indirect pointer blocks. Files are named
// by inumber only. Each file has five direct block pointers and one indirect block.
//
// A FileSystem owns all per-mount state (the free block map and the mounted flag).
// Mutating operations take an exclusive lock; Read, GetSize and Inspect share it.
package filesystem

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/interfaces"
	"github.com/deploymenttheory/go-simplefs/internal/spacemanager"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// FileSystem is one file system instance over one block device
type FileSystem struct {
	dev     interfaces.BlockDevice
	baseLog logrus.FieldLogger
	log     logrus.FieldLogger

	mu      sync.RWMutex
	mounted bool
	sb      types.Superblock
	free    *spacemanager.FreeBlockMap
	session uuid.UUID
}

// Option configures a FileSystem
type Option func(*FileSystem)

// WithLogger sets the logger used for format, mount and allocation events
func WithLogger(logger logrus.FieldLogger) Option {
	return func(fs *FileSystem) {
		if logger != nil {
			fs.baseLog = logger
		}
	}
}

// New creates an unmounted file system over dev
func New(dev interfaces.BlockDevice, opts ...Option) *FileSystem {
	fs := &FileSystem{
		dev:     dev,
		baseLog: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.log = fs.baseLog
	return fs
}

// Mounted reports whether Mount has succeeded on this instance
func (fs *FileSystem) Mounted() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.mounted
}

// SessionID identifies the current mount session in logs. uuid.Nil before mount.
func (fs *FileSystem) SessionID() uuid.UUID {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.session
}

// Superblock returns the layout descriptor read at mount
func (fs *FileSystem) Superblock() (types.Superblock, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return types.Superblock{}, types.NewError("superblock", 0, types.ErrNotMounted, nil)
	}
	return fs.sb, nil
}

// FreeBlockCount returns the number of free blocks in the current session
func (fs *FileSystem) FreeBlockCount() (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return 0, types.NewError("free blocks", 0, types.ErrNotMounted, nil)
	}
	return fs.free.FreeCount(), nil
}

// FreeBlockMap returns a copy of the free flags, indexed by block number
func (fs *FileSystem) FreeBlockMap() ([]bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return nil, types.NewError("free blocks", 0, types.ErrNotMounted, nil)
	}
	return fs.free.Snapshot(), nil
}

// FreeBlockBitmap renders the free map as one digit per block, 1 for free
func (fs *FileSystem) FreeBlockBitmap() (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return "", types.NewError("free blocks", 0, types.ErrNotMounted, nil)
	}
	return fs.free.String(), nil
}

func (fs *FileSystem) readBlock(op string, inumber types.Inumber, b types.BlockNumber, buf []byte) error {
	if err := fs.dev.ReadBlock(b, buf); err != nil {
		return types.NewError(op, inumber, types.ErrIO, fmt.Errorf("failed to read block %d: %w", b, err))
	}
	return nil
}

func (fs *FileSystem) writeBlock(op string, inumber types.Inumber, b types.BlockNumber, buf []byte) error {
	if err := fs.dev.WriteBlock(b, buf); err != nil {
		return types.NewError(op, inumber, types.ErrIO, fmt.Errorf("failed to write block %d: %w", b, err))
	}
	return nil
}

func newBlock() []byte {
	return make([]byte, types.BlockSize)
}
