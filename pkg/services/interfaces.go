package services

import (
	"context"
	"io"
	"time"

	"github.com/deploymenttheory/go-simplefs/internal/filesystem"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// ImageInfo represents basic image metadata
type ImageInfo struct {
	Path      string
	Blocks    uint32
	SizeBytes int64
	Formatted bool
	Mounted   bool
	SessionID string
	OpenedAt  time.Time
}

// FileInfo describes one inode in use
type FileInfo struct {
	Inumber types.Inumber `json:"inumber" yaml:"inumber"`
	Size    int64         `json:"size" yaml:"size"`
	Blocks  int           `json:"blocks" yaml:"blocks"`
}

// DeviceStats combines free space accounting with block I/O counters
type DeviceStats struct {
	ImagePath     string `json:"image_path" yaml:"image_path"`
	Blocks        uint32 `json:"blocks" yaml:"blocks"`
	InodeBlocks   uint32 `json:"inode_blocks" yaml:"inode_blocks"`
	Inodes        uint32 `json:"inodes" yaml:"inodes"`
	FreeBlocks    int    `json:"free_blocks" yaml:"free_blocks"`
	UsedBlocks    int    `json:"used_blocks" yaml:"used_blocks"`
	FreeMap       string `json:"free_map" yaml:"free_map"`
	BlocksRead    uint64 `json:"blocks_read" yaml:"blocks_read"`
	BlocksWritten uint64 `json:"blocks_written" yaml:"blocks_written"`
	Errors        uint64 `json:"errors" yaml:"errors"`
}

// ImageService manages disk image files and the file system instance bound to each
type ImageService interface {
	// CreateImage creates a zeroed image of blocks blocks at path
	CreateImage(ctx context.Context, path string, blocks uint32) error

	// OpenImage opens the image at path, reusing an already open handle
	OpenImage(ctx context.Context, path string) (ImageInfo, error)

	// FileSystem returns the unmounted or mounted instance bound to the image
	FileSystem(ctx context.Context, path string) (*filesystem.FileSystem, error)

	// MountedFileSystem returns the instance bound to the image, mounting it first if needed
	MountedFileSystem(ctx context.Context, path string) (*filesystem.FileSystem, error)

	// Stats returns the I/O counters of the image
	Stats(ctx context.Context, path string) (DeviceStats, error)

	// Close closes every open image
	Close() error
}

// FilesystemService provides the file operations of the shell
type FilesystemService interface {
	// Format writes a fresh file system onto the image
	Format(ctx context.Context, imagePath string) error

	// Inspect reads the superblock and inode table without mounting
	Inspect(ctx context.Context, imagePath string) (*filesystem.Report, error)

	// Create allocates a new empty inode
	Create(ctx context.Context, imagePath string) (types.Inumber, error)

	// Delete releases an inode and its blocks
	Delete(ctx context.Context, imagePath string, inumber types.Inumber) error

	// GetFileInfo returns the size and block usage of an inode
	GetFileInfo(ctx context.Context, imagePath string, inumber types.Inumber) (FileInfo, error)

	// ReadFile copies the whole content of an inode to w
	ReadFile(ctx context.Context, imagePath string, inumber types.Inumber, w io.Writer) (int64, error)

	// WriteFile copies r into an inode starting at offset
	WriteFile(ctx context.Context, imagePath string, inumber types.Inumber, r io.Reader, offset int64) (int64, error)

	// Stat reports free space and I/O counters
	Stat(ctx context.Context, imagePath string) (DeviceStats, error)
}
