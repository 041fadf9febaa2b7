package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/device"
	"github.com/deploymenttheory/go-simplefs/internal/disk"
	"github.com/deploymenttheory/go-simplefs/internal/filesystem"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// imageService implements the ImageService interface
type imageService struct {
	log        logrus.FieldLogger
	config     device.ImageConfig
	mu         sync.Mutex
	openImages map[string]*imageHandle
}

// imageHandle represents an open image
type imageHandle struct {
	path     string
	image    *device.ImageDevice
	dev      *disk.InstrumentedDevice
	fs       *filesystem.FileSystem
	openedAt time.Time
}

// NewImageService creates a new image service instance
func NewImageService(logger logrus.FieldLogger, config device.ImageConfig) ImageService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &imageService{
		log:        logger,
		config:     config,
		openImages: make(map[string]*imageHandle),
	}
}

// CreateImage creates a zeroed image of blocks blocks at path
func (is *imageService) CreateImage(ctx context.Context, path string, blocks uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := imageKey(path)
	if err != nil {
		return err
	}

	is.mu.Lock()
	defer is.mu.Unlock()
	if _, open := is.openImages[key]; open {
		return fmt.Errorf("image %s is open", path)
	}

	if err := device.CreateImage(path, blocks); err != nil {
		return err
	}
	is.log.WithFields(logrus.Fields{"image": path, "blocks": blocks}).Info("created image")
	return nil
}

// OpenImage opens the image at path, reusing an already open handle
func (is *imageService) OpenImage(ctx context.Context, path string) (ImageInfo, error) {
	handle, err := is.handle(ctx, path)
	if err != nil {
		return ImageInfo{}, err
	}
	return is.buildImageInfo(handle)
}

// FileSystem returns the instance bound to the image
func (is *imageService) FileSystem(ctx context.Context, path string) (*filesystem.FileSystem, error) {
	handle, err := is.handle(ctx, path)
	if err != nil {
		return nil, err
	}
	return handle.fs, nil
}

// MountedFileSystem returns the instance bound to the image, mounted
func (is *imageService) MountedFileSystem(ctx context.Context, path string) (*filesystem.FileSystem, error) {
	handle, err := is.handle(ctx, path)
	if err != nil {
		return nil, err
	}
	if !handle.fs.Mounted() {
		if err := handle.fs.Mount(); err != nil && !errors.Is(err, types.ErrAlreadyMounted) {
			return nil, err
		}
	}
	return handle.fs, nil
}

// Stats returns the I/O counters of the image
func (is *imageService) Stats(ctx context.Context, path string) (DeviceStats, error) {
	handle, err := is.handle(ctx, path)
	if err != nil {
		return DeviceStats{}, err
	}

	counters := handle.dev.Stats()
	return DeviceStats{
		ImagePath:     handle.path,
		Blocks:        handle.dev.BlockCount(),
		BlocksRead:    counters.BlocksRead,
		BlocksWritten: counters.BlocksWritten,
		Errors:        counters.Errors,
	}, nil
}

// Close closes every open image
func (is *imageService) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	var errs []error
	for key, handle := range is.openImages {
		handle.dev.LogStats(is.log.WithField("image", handle.path))
		if err := handle.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close image %s: %w", handle.path, err))
		}
		delete(is.openImages, key)
	}
	return errors.Join(errs...)
}

func (is *imageService) handle(ctx context.Context, path string) (*imageHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := imageKey(path)
	if err != nil {
		return nil, err
	}

	is.mu.Lock()
	defer is.mu.Unlock()

	// Check if already open
	if handle, exists := is.openImages[key]; exists {
		return handle, nil
	}

	config := is.config
	image, err := device.OpenImage(path, &config)
	if err != nil {
		return nil, err
	}

	dev := disk.NewInstrumentedDevice(image)
	handle := &imageHandle{
		path:     path,
		image:    image,
		dev:      dev,
		fs:       filesystem.New(dev, filesystem.WithLogger(is.log.WithField("image", path))),
		openedAt: time.Now(),
	}
	is.openImages[key] = handle

	is.log.WithFields(logrus.Fields{"image": path, "blocks": image.BlockCount()}).Debug("opened image")
	return handle, nil
}

func (is *imageService) buildImageInfo(handle *imageHandle) (ImageInfo, error) {
	info := ImageInfo{
		Path:      handle.image.Path(),
		Blocks:    handle.dev.BlockCount(),
		SizeBytes: int64(handle.dev.BlockCount()) * types.BlockSize,
		Mounted:   handle.fs.Mounted(),
		OpenedAt:  handle.openedAt,
	}
	if info.Mounted {
		info.SessionID = handle.fs.SessionID().String()
	}

	if info.Blocks == 0 {
		return info, nil
	}
	block := make([]byte, types.BlockSize)
	if err := handle.dev.ReadBlock(types.SuperblockBlock, block); err != nil {
		return ImageInfo{}, fmt.Errorf("failed to read superblock: %w", err)
	}
	reader, err := superblock.NewSuperblockReader(block, superblock.ByteOrder)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to parse superblock: %w", err)
	}
	info.Formatted = reader.HasValidMagic()
	return info, nil
}

func imageKey(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("image path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image path: %w", err)
	}
	return abs, nil
}
