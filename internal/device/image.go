package device

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// ImageDevice is a block device backed by a regular disk image file
type ImageDevice struct {
	file   *os.File
	path   string
	blocks uint32
	sync   bool
	mu     sync.Mutex
}

// ImageConfig holds configuration for image file handling
type ImageConfig struct {
	// Sync forces an fsync after every block write
	Sync bool `mapstructure:"sync"`

	// ReadOnly opens the image without write access
	ReadOnly bool `mapstructure:"read_only"`
}

// CreateImage creates (or truncates) an image file of blocks zeroed blocks
func CreateImage(path string, blocks uint32) error {
	if blocks == 0 {
		return fmt.Errorf("image must have at least one block")
	}
	if blocks > types.MaxBlocks {
		return fmt.Errorf("image of %d blocks exceeds the %d block limit", blocks, types.MaxBlocks)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	if err := file.Truncate(int64(blocks) * types.BlockSize); err != nil {
		return fmt.Errorf("failed to size image file: %w", err)
	}
	return nil
}

// OpenImage opens an existing image file. Its size must be a whole number of blocks.
func OpenImage(path string, config *ImageConfig) (*ImageDevice, error) {
	if config == nil {
		config = &ImageConfig{}
	}

	flag := os.O_RDWR
	if config.ReadOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	size := stat.Size()
	if size == 0 || size%types.BlockSize != 0 {
		file.Close()
		return nil, fmt.Errorf("image size %d is not a positive multiple of the %d-byte block size", size, types.BlockSize)
	}
	if size/types.BlockSize > types.MaxBlocks {
		file.Close()
		return nil, fmt.Errorf("image of %d bytes has too many blocks", size)
	}

	return &ImageDevice{
		file:   file,
		path:   path,
		blocks: uint32(size / types.BlockSize),
		sync:   config.Sync,
	}, nil
}

// ReadBlock implements interfaces.BlockDeviceReader
func (d *ImageDevice) ReadBlock(index types.BlockNumber, buf []byte) error {
	if err := d.checkAccess(index, buf); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.file.ReadAt(buf[:types.BlockSize], int64(index)*types.BlockSize)
	if err != nil && !(err == io.EOF && n == types.BlockSize) {
		return fmt.Errorf("failed to read block %d: %w", index, err)
	}
	return nil
}

// WriteBlock implements interfaces.BlockDeviceWriter
func (d *ImageDevice) WriteBlock(index types.BlockNumber, buf []byte) error {
	if err := d.checkAccess(index, buf); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.WriteAt(buf[:types.BlockSize], int64(index)*types.BlockSize); err != nil {
		return fmt.Errorf("failed to write block %d: %w", index, err)
	}
	if d.sync {
		if err := d.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync block %d: %w", index, err)
		}
	}
	return nil
}

// BlockCount returns the number of blocks in the image
func (d *ImageDevice) BlockCount() uint32 {
	return d.blocks
}

// Path returns the image file path
func (d *ImageDevice) Path() string {
	return d.path
}

// Close closes the image file
func (d *ImageDevice) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

func (d *ImageDevice) checkAccess(index types.BlockNumber, buf []byte) error {
	if uint32(index) >= d.blocks {
		return fmt.Errorf("block %d out of range (device has %d blocks)", index, d.blocks)
	}
	if len(buf) < types.BlockSize {
		return fmt.Errorf("buffer of %d bytes is smaller than a block", len(buf))
	}
	return nil
}
