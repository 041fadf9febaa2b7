package device

import (
	"fmt"
	"sync"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// MemoryDevice is a RAM disk. Useful for tests and scratch file systems.
type MemoryDevice struct {
	data   []byte
	blocks uint32
	mu     sync.RWMutex
}

// NewMemoryDevice creates a zeroed RAM disk of blocks blocks
func NewMemoryDevice(blocks uint32) *MemoryDevice {
	return &MemoryDevice{
		data:   make([]byte, int(blocks)*types.BlockSize),
		blocks: blocks,
	}
}

// ReadBlock implements interfaces.BlockDeviceReader
func (d *MemoryDevice) ReadBlock(index types.BlockNumber, buf []byte) error {
	if uint32(index) >= d.blocks {
		return fmt.Errorf("block %d out of range (device has %d blocks)", index, d.blocks)
	}
	if len(buf) < types.BlockSize {
		return fmt.Errorf("buffer of %d bytes is smaller than a block", len(buf))
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	off := int(index) * types.BlockSize
	copy(buf, d.data[off:off+types.BlockSize])
	return nil
}

// WriteBlock implements interfaces.BlockDeviceWriter
func (d *MemoryDevice) WriteBlock(index types.BlockNumber, buf []byte) error {
	if uint32(index) >= d.blocks {
		return fmt.Errorf("block %d out of range (device has %d blocks)", index, d.blocks)
	}
	if len(buf) < types.BlockSize {
		return fmt.Errorf("buffer of %d bytes is smaller than a block", len(buf))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	off := int(index) * types.BlockSize
	copy(d.data[off:off+types.BlockSize], buf)
	return nil
}

// BlockCount returns the number of blocks on the RAM disk
func (d *MemoryDevice) BlockCount() uint32 {
	return d.blocks
}

// Close is a no-op
func (d *MemoryDevice) Close() error {
	return nil
}
