// File: internal/interfaces/block_device.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// BlockDeviceReader provides methods for reading from block devices
type BlockDeviceReader interface {
	// ReadBlock fills buf (exactly types.BlockSize bytes) with the contents of block index
	ReadBlock(index types.BlockNumber, buf []byte) error

	// BlockCount returns the total number of blocks on the device
	BlockCount() uint32
}

// BlockDeviceWriter provides methods for writing to block devices
type BlockDeviceWriter interface {
	// WriteBlock stores buf (exactly types.BlockSize bytes) at block index
	WriteBlock(index types.BlockNumber, buf []byte) error
}

// BlockDevice is the storage contract consumed by the file system core
type BlockDevice interface {
	BlockDeviceReader
	BlockDeviceWriter
}

// BlockDeviceCloser is a block device owning an underlying resource
type BlockDeviceCloser interface {
	BlockDevice
	io.Closer
}

// BlockDeviceStats contains block I/O counters
type BlockDeviceStats struct {
	// Number of blocks read
	BlocksRead uint64

	// Number of blocks written
	BlocksWritten uint64

	// Number of failed device calls
	Errors uint64
}
