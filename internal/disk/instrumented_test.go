package disk

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-simplefs/internal/device"
	"github.com/deploymenttheory/go-simplefs/internal/interfaces"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

var _ interfaces.BlockDeviceCloser = (*InstrumentedDevice)(nil)

func TestInstrumentedDevice_Counts(t *testing.T) {
	dev := NewInstrumentedDevice(device.NewMemoryDevice(4))
	buf := make([]byte, types.BlockSize)

	require.NoError(t, dev.WriteBlock(1, buf))
	require.NoError(t, dev.ReadBlock(1, buf))
	require.NoError(t, dev.ReadBlock(2, buf))
	assert.Error(t, dev.ReadBlock(9, buf))

	stats := dev.Stats()
	assert.Equal(t, uint64(2), stats.BlocksRead)
	assert.Equal(t, uint64(1), stats.BlocksWritten)
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Equal(t, uint32(4), dev.BlockCount())

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	dev.LogStats(logger)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "block device statistics", hook.LastEntry().Message)
	assert.Equal(t, uint64(2), hook.LastEntry().Data["blocks_read"])
	assert.Equal(t, int64(4*types.BlockSize), hook.LastEntry().Data["bytes"])
	assert.NoError(t, dev.Close())
}
