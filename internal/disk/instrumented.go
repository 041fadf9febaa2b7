package disk

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/interfaces"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// InstrumentedDevice wraps a block device and records access statistics
type InstrumentedDevice struct {
	dev   interfaces.BlockDevice
	stats *DeviceStatistics
}

// DeviceStatistics tracks block device access statistics
type DeviceStatistics struct {
	blocksRead    uint64
	blocksWritten uint64
	errors        uint64
	readTime      time.Duration
	writeTime     time.Duration
	mu            sync.RWMutex
}

// NewInstrumentedDevice wraps dev
func NewInstrumentedDevice(dev interfaces.BlockDevice) *InstrumentedDevice {
	return &InstrumentedDevice{
		dev:   dev,
		stats: &DeviceStatistics{},
	}
}

// ReadBlock implements interfaces.BlockDeviceReader
func (d *InstrumentedDevice) ReadBlock(index types.BlockNumber, buf []byte) error {
	start := time.Now()
	err := d.dev.ReadBlock(index, buf)
	elapsed := time.Since(start)

	d.stats.mu.Lock()
	defer d.stats.mu.Unlock()
	d.stats.readTime += elapsed
	if err != nil {
		d.stats.errors++
		return err
	}
	d.stats.blocksRead++
	return nil
}

// WriteBlock implements interfaces.BlockDeviceWriter
func (d *InstrumentedDevice) WriteBlock(index types.BlockNumber, buf []byte) error {
	start := time.Now()
	err := d.dev.WriteBlock(index, buf)
	elapsed := time.Since(start)

	d.stats.mu.Lock()
	defer d.stats.mu.Unlock()
	d.stats.writeTime += elapsed
	if err != nil {
		d.stats.errors++
		return err
	}
	d.stats.blocksWritten++
	return nil
}

// BlockCount returns the block count of the wrapped device
func (d *InstrumentedDevice) BlockCount() uint32 {
	return d.dev.BlockCount()
}

// Close closes the wrapped device if it owns a resource
func (d *InstrumentedDevice) Close() error {
	if c, ok := d.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stats returns a snapshot of the access counters
func (d *InstrumentedDevice) Stats() interfaces.BlockDeviceStats {
	d.stats.mu.RLock()
	defer d.stats.mu.RUnlock()
	return interfaces.BlockDeviceStats{
		BlocksRead:    d.stats.blocksRead,
		BlocksWritten: d.stats.blocksWritten,
		Errors:        d.stats.errors,
	}
}

// LogStats writes the access counters and timings of the device to logger at debug level
func (d *InstrumentedDevice) LogStats(logger logrus.FieldLogger) {
	d.stats.mu.RLock()
	defer d.stats.mu.RUnlock()

	logger.WithFields(logrus.Fields{
		"blocks":         d.dev.BlockCount(),
		"bytes":          int64(d.dev.BlockCount()) * types.BlockSize,
		"blocks_read":    d.stats.blocksRead,
		"read_time":      d.stats.readTime,
		"blocks_written": d.stats.blocksWritten,
		"write_time":     d.stats.writeTime,
		"errors":         d.stats.errors,
	}).Debug("block device statistics")
}
