package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deploymenttheory/go-simplefs/internal/filesystem"
	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

// filesystemService implements the FilesystemService interface
type filesystemService struct {
	imageService ImageService
}

// NewFilesystemService creates a new filesystem service instance
func NewFilesystemService(imageService ImageService) FilesystemService {
	return &filesystemService{
		imageService: imageService,
	}
}

// Format writes a fresh file system onto the image. The image must not be mounted.
func (fs *filesystemService) Format(ctx context.Context, imagePath string) error {
	fsys, err := fs.imageService.FileSystem(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	return fsys.Format()
}

// Inspect reads the superblock and inode table without mounting
func (fs *filesystemService) Inspect(ctx context.Context, imagePath string) (*filesystem.Report, error) {
	fsys, err := fs.imageService.FileSystem(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return fsys.Inspect()
}

// Create allocates a new empty inode
func (fs *filesystemService) Create(ctx context.Context, imagePath string) (types.Inumber, error) {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return 0, err
	}
	return fsys.Create()
}

// Delete releases an inode and its blocks
func (fs *filesystemService) Delete(ctx context.Context, imagePath string, inumber types.Inumber) error {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return err
	}
	return fsys.Delete(inumber)
}

// GetFileInfo returns the size and block usage of an inode
func (fs *filesystemService) GetFileInfo(ctx context.Context, imagePath string, inumber types.Inumber) (FileInfo, error) {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return FileInfo{}, err
	}
	size, err := fsys.GetSize(inumber)
	if err != nil {
		return FileInfo{}, err
	}

	blocks := types.BlocksForSize(size)
	if blocks > types.PointersPerInode {
		blocks++
	}
	return FileInfo{Inumber: inumber, Size: size, Blocks: blocks}, nil
}

// ReadFile copies the whole content of an inode to w
func (fs *filesystemService) ReadFile(ctx context.Context, imagePath string, inumber types.Inumber, w io.Writer) (int64, error) {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return 0, err
	}
	file, err := fsys.Open(inumber)
	if err != nil {
		return 0, err
	}
	size, err := file.Size()
	if err != nil {
		return 0, err
	}

	src := newProgressReader(ctx, fmt.Sprintf("reading inode %d", inumber), io.NewSectionReader(file, 0, size), size)
	return io.Copy(w, src)
}

// WriteFile copies r into an inode starting at offset.
// A full device stops the copy; the bytes stored so far are returned with the error.
func (fs *filesystemService) WriteFile(ctx context.Context, imagePath string, inumber types.Inumber, r io.Reader, offset int64) (int64, error) {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return 0, err
	}
	file, err := fsys.Open(inumber)
	if err != nil {
		return 0, err
	}

	dst := io.NewOffsetWriter(file, offset)
	return io.Copy(dst, newProgressReader(ctx, fmt.Sprintf("writing inode %d", inumber), r, sourceSize(r)))
}

// Stat reports free space and I/O counters
func (fs *filesystemService) Stat(ctx context.Context, imagePath string) (DeviceStats, error) {
	fsys, err := fs.imageService.MountedFileSystem(ctx, imagePath)
	if err != nil {
		return DeviceStats{}, err
	}

	stats, err := fs.imageService.Stats(ctx, imagePath)
	if err != nil {
		return DeviceStats{}, err
	}

	sb, err := fsys.Superblock()
	if err != nil {
		return DeviceStats{}, err
	}
	free, err := fsys.FreeBlockCount()
	if err != nil {
		return DeviceStats{}, err
	}
	bitmap, err := fsys.FreeBlockBitmap()
	if err != nil {
		return DeviceStats{}, err
	}

	stats.InodeBlocks = sb.InodeBlocks
	stats.Inodes = sb.Inodes
	stats.FreeBlocks = free
	stats.UsedBlocks = int(sb.TotalBlocks) - free
	stats.FreeMap = bitmap
	return stats, nil
}

// progressReporter is implemented by app.Context
type progressReporter interface {
	Progress(message string, percent int)
}

// progressReader stops a copy once ctx is done and reports each new percentage
// to ctx when ctx is a progressReporter
type progressReader struct {
	ctx      context.Context
	r        io.Reader
	reporter progressReporter
	update   app.ProgressUpdate
	last     int
}

func newProgressReader(ctx context.Context, message string, r io.Reader, total int64) *progressReader {
	reporter, _ := ctx.(progressReporter)
	return &progressReader{
		ctx:      ctx,
		r:        r,
		reporter: reporter,
		update:   app.ProgressUpdate{Message: message, Total: total, StartedAt: time.Now()},
		last:     -1,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := pr.r.Read(p)
	if n > 0 && pr.reporter != nil && pr.update.Total > 0 {
		pr.update.Completed += int64(n)
		pr.update.ElapsedTime = time.Since(pr.update.StartedAt)
		if percent := pr.update.Percent(); percent != pr.last {
			pr.last = percent
			pr.reporter.Progress(fmt.Sprintf("%s: %d/%d bytes, %.0f bytes/s",
				pr.update.Message, pr.update.Completed, pr.update.Total, pr.update.Rate()), percent)
		}
	}
	return n, err
}

// sourceSize returns the number of bytes r will yield, or 0 when unknown
func sourceSize(r io.Reader) int64 {
	switch src := r.(type) {
	case interface{ Len() int }:
		return int64(src.Len())
	case interface{ Stat() (os.FileInfo, error) }:
		if info, err := src.Stat(); err == nil && info.Mode().IsRegular() {
			return info.Size()
		}
	}
	return 0
}
