package services

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/device"
)

// ServiceFactory provides a centralized way to create and manage simplefs services
type ServiceFactory struct {
	logger            logrus.FieldLogger
	imageConfig       device.ImageConfig
	imageService      ImageService
	filesystemService FilesystemService
	mu                sync.RWMutex
	initialized       bool
}

// NewServiceFactory creates a new service factory instance
func NewServiceFactory(logger logrus.FieldLogger, imageConfig device.ImageConfig) *ServiceFactory {
	return &ServiceFactory{
		logger:      logger,
		imageConfig: imageConfig,
	}
}

// Initialize initializes all services with their dependencies
func (sf *ServiceFactory) Initialize() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.initialized {
		return nil
	}

	// Create image service first (it's the foundation)
	sf.imageService = NewImageService(sf.logger, sf.imageConfig)

	// Create filesystem service (depends on image service)
	sf.filesystemService = NewFilesystemService(sf.imageService)

	sf.initialized = true
	return nil
}

// ImageService returns the image service instance
func (sf *ServiceFactory) ImageService() (ImageService, error) {
	if err := sf.Initialize(); err != nil {
		return nil, err
	}

	sf.mu.RLock()
	defer sf.mu.RUnlock()
	if sf.imageService == nil {
		return nil, ErrServiceNotAvailable
	}
	return sf.imageService, nil
}

// FilesystemService returns the filesystem service instance
func (sf *ServiceFactory) FilesystemService() (FilesystemService, error) {
	if err := sf.Initialize(); err != nil {
		return nil, err
	}

	sf.mu.RLock()
	defer sf.mu.RUnlock()
	if sf.filesystemService == nil {
		return nil, ErrServiceNotAvailable
	}
	return sf.filesystemService, nil
}

// Shutdown gracefully shuts down all services
func (sf *ServiceFactory) Shutdown() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if !sf.initialized {
		return nil
	}

	// Close image service (this will close all open images)
	if sf.imageService != nil {
		if err := sf.imageService.Close(); err != nil {
			return err
		}
	}

	// Reset all services
	sf.imageService = nil
	sf.filesystemService = nil
	sf.initialized = false

	return nil
}

// IsInitialized returns whether the factory has been initialized
func (sf *ServiceFactory) IsInitialized() bool {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.initialized
}

// Common errors
var (
	ErrServiceNotAvailable = fmt.Errorf("service not available")
)
