package filesystem

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-simplefs/internal/device"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// newMountedFS formats and mounts a RAM disk of blocks blocks
func newMountedFS(t *testing.T, blocks uint32) (*FileSystem, *device.MemoryDevice) {
	t.Helper()
	dev := device.NewMemoryDevice(blocks)
	logger, _ := newTestLogger()
	fs := New(dev, WithLogger(logger))
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Mount())
	return fs, dev
}

func remount(t *testing.T, dev *device.MemoryDevice) *FileSystem {
	t.Helper()
	logger, _ := newTestLogger()
	fs := New(dev, WithLogger(logger))
	require.NoError(t, fs.Mount())
	return fs
}

func TestFormat_Layout(t *testing.T) {
	tests := []struct {
		name        string
		blocks      uint32
		inodeBlocks uint32
	}{
		{"ten blocks", 10, 1},
		{"eleven blocks", 11, 2},
		{"twenty blocks", 20, 2},
		{"two hundred blocks", 200, 20},
		{"two blocks", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := device.NewMemoryDevice(tt.blocks)
			fs := New(dev, WithLogger(logrus.New()))
			require.NoError(t, fs.Format())

			block := make([]byte, types.BlockSize)
			require.NoError(t, dev.ReadBlock(0, block))
			reader, err := superblock.NewSuperblockReader(block, superblock.ByteOrder)
			require.NoError(t, err)

			sb := reader.Superblock()
			assert.Equal(t, types.FSMagic, sb.Magic)
			assert.Equal(t, tt.blocks, sb.TotalBlocks)
			assert.Equal(t, tt.inodeBlocks, sb.InodeBlocks)
			assert.Equal(t, tt.inodeBlocks*types.InodesPerBlock, sb.Inodes)
		})
	}
}

func TestFormat_TooSmallDevice(t *testing.T) {
	fs := New(device.NewMemoryDevice(1))
	err := fs.Format()
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestFormat_FailsWhileMounted(t *testing.T) {
	fs, _ := newMountedFS(t, 10)

	err := fs.Format()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAlreadyMounted)
	assert.Equal(t, types.ErrAlreadyMounted, types.KindOf(err))
}

func TestFormat_ClearsInodeTableButNotData(t *testing.T) {
	fs, dev := newMountedFS(t, 10)

	inumber, err := fs.Create()
	require.NoError(t, err)
	_, err = fs.Write(inumber, []byte("secret"), 0)
	require.NoError(t, err)

	report, err := fs.Inspect()
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	dataBlock := report.Files[0].DirectBlocks[0]

	// A second instance on the same device is not mounted and may format.
	again := New(dev, WithLogger(logrus.New()))
	require.NoError(t, again.Format())
	require.NoError(t, again.Mount())

	report, err = again.Inspect()
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.False(t, again.IsValidInumber(inumber))

	// Old file contents stay on the device until overwritten.
	raw := make([]byte, types.BlockSize)
	require.NoError(t, dev.ReadBlock(dataBlock, raw))
	assert.Equal(t, []byte("secret"), raw[:6])

	free, err := again.FreeBlockCount()
	require.NoError(t, err)
	assert.Equal(t, 8, free)
}

func TestFormat_ForeignDeviceGetsEmptyTable(t *testing.T) {
	dev := device.NewMemoryDevice(10)
	junk := make([]byte, types.BlockSize)
	for i := range junk {
		junk[i] = 0xff
	}
	require.NoError(t, dev.WriteBlock(1, junk))

	fs := New(dev, WithLogger(logrus.New()))
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Mount())

	report, err := fs.Inspect()
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}

func TestMount(t *testing.T) {
	t.Run("unformatted device", func(t *testing.T) {
		fs := New(device.NewMemoryDevice(10))
		err := fs.Mount()
		assert.ErrorIs(t, err, types.ErrCorruptSuperblock)
		assert.False(t, fs.Mounted())
	})

	t.Run("already mounted", func(t *testing.T) {
		fs, _ := newMountedFS(t, 10)
		session := fs.SessionID()
		err := fs.Mount()
		assert.ErrorIs(t, err, types.ErrAlreadyMounted)
		assert.Equal(t, session, fs.SessionID())
	})

	t.Run("geometry mismatch", func(t *testing.T) {
		dev := device.NewMemoryDevice(20)
		block := make([]byte, types.BlockSize)
		require.NoError(t, superblock.Encode(types.NewSuperblock(10), block, superblock.ByteOrder))
		require.NoError(t, dev.WriteBlock(0, block))

		err := New(dev).Mount()
		assert.ErrorIs(t, err, types.ErrCorruptSuperblock)
	})

	t.Run("session and free blocks", func(t *testing.T) {
		fs, _ := newMountedFS(t, 10)
		assert.True(t, fs.Mounted())
		assert.NotEqual(t, uuid.Nil, fs.SessionID())

		free, err := fs.FreeBlockCount()
		require.NoError(t, err)
		assert.Equal(t, 8, free)

		freeMap, err := fs.FreeBlockMap()
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, true, true, true, true, true, true, true, true}, freeMap)

		bitmap, err := fs.FreeBlockBitmap()
		require.NoError(t, err)
		assert.Equal(t, "0011111111", bitmap)

		sb, err := fs.Superblock()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), sb.TotalBlocks)
	})

	t.Run("logs mount", func(t *testing.T) {
		dev := device.NewMemoryDevice(10)
		logger, hook := newTestLogger()
		fs := New(dev, WithLogger(logger))
		require.NoError(t, fs.Format())
		require.NoError(t, fs.Mount())

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "mounted file system", entry.Message)
		assert.Equal(t, fs.SessionID().String(), entry.Data["session"])
		assert.Equal(t, 8, entry.Data["free_blocks"])
	})
}

func TestMount_RebuildsFreeMap(t *testing.T) {
	fs, dev := newMountedFS(t, 64)

	a, err := fs.Create()
	require.NoError(t, err)
	b, err := fs.Create()
	require.NoError(t, err)
	c, err := fs.Create()
	require.NoError(t, err)

	_, err = fs.Write(a, pattern(3*types.BlockSize, 1), 0)
	require.NoError(t, err)
	_, err = fs.Write(b, pattern(7*types.BlockSize+10, 2), 0)
	require.NoError(t, err)
	_, err = fs.Write(c, pattern(100, 3), 0)
	require.NoError(t, err)
	require.NoError(t, fs.Delete(a))

	wantFree, err := fs.FreeBlockCount()
	require.NoError(t, err)
	wantMap, err := fs.FreeBlockMap()
	require.NoError(t, err)

	again := remount(t, dev)
	gotFree, err := again.FreeBlockCount()
	require.NoError(t, err)
	gotMap, err := again.FreeBlockMap()
	require.NoError(t, err)

	assert.Equal(t, wantFree, gotFree)
	assert.Equal(t, wantMap, gotMap)
	assert.NotEqual(t, fs.SessionID(), again.SessionID())
}

func TestMount_CorruptPointer(t *testing.T) {
	fs, dev := newMountedFS(t, 10)

	inumber, err := fs.Create()
	require.NoError(t, err)
	require.NoError(t, fs.saveInode("test", inumber, types.Inode{
		Valid:  true,
		Size:   100,
		Direct: [types.PointersPerInode]types.BlockNumber{42},
	}))

	err = New(dev).Mount()
	assert.ErrorIs(t, err, types.ErrCorruptInode)
}

func TestNotMounted(t *testing.T) {
	dev := device.NewMemoryDevice(10)
	fs := New(dev)
	require.NoError(t, fs.Format())

	_, err := fs.Create()
	assert.ErrorIs(t, err, types.ErrNotMounted)

	assert.ErrorIs(t, fs.Delete(1), types.ErrNotMounted)

	_, err = fs.GetSize(1)
	assert.ErrorIs(t, err, types.ErrNotMounted)

	_, err = fs.Read(1, make([]byte, 4), 0)
	assert.ErrorIs(t, err, types.ErrNotMounted)

	_, err = fs.Write(1, []byte("x"), 0)
	assert.ErrorIs(t, err, types.ErrNotMounted)

	_, err = fs.Open(1)
	assert.ErrorIs(t, err, types.ErrNotMounted)

	_, err = fs.FreeBlockCount()
	assert.ErrorIs(t, err, types.ErrNotMounted)

	assert.False(t, fs.IsValidInumber(1))
}

func TestCreate(t *testing.T) {
	fs, _ := newMountedFS(t, 10)

	// One inode block: inumbers 1..127 are usable, 0 never is.
	for want := types.Inumber(1); want < types.InodesPerBlock; want++ {
		got, err := fs.Create()
		require.NoError(t, err)
		require.Equal(t, want, got)
		assert.True(t, fs.IsValidInumber(got))
	}

	_, err := fs.Create()
	assert.ErrorIs(t, err, types.ErrNoFreeInodes)

	// A freed slot is handed out again.
	require.NoError(t, fs.Delete(40))
	got, err := fs.Create()
	require.NoError(t, err)
	assert.Equal(t, types.Inumber(40), got)
}

func TestCreate_ClearsStaleRecord(t *testing.T) {
	fs, _ := newMountedFS(t, 64)

	inumber, err := fs.Create()
	require.NoError(t, err)
	_, err = fs.Write(inumber, pattern(6*types.BlockSize, 9), 0)
	require.NoError(t, err)
	require.NoError(t, fs.Delete(inumber))

	again, err := fs.Create()
	require.NoError(t, err)
	require.Equal(t, inumber, again)

	ino, err := fs.loadInode("test", again)
	require.NoError(t, err)
	assert.Equal(t, types.Inode{Valid: true}, ino)
}

func TestIsValidInumber(t *testing.T) {
	fs, _ := newMountedFS(t, 10)
	inumber, err := fs.Create()
	require.NoError(t, err)

	assert.True(t, fs.IsValidInumber(inumber))
	assert.False(t, fs.IsValidInumber(0))
	assert.False(t, fs.IsValidInumber(-1))
	assert.False(t, fs.IsValidInumber(2))
	assert.False(t, fs.IsValidInumber(types.InodesPerBlock))
	assert.False(t, fs.IsValidInumber(1<<20))
}

func TestDelete(t *testing.T) {
	fs, _ := newMountedFS(t, 64)

	keep, err := fs.Create()
	require.NoError(t, err)
	gone, err := fs.Create()
	require.NoError(t, err)

	before, err := fs.FreeBlockCount()
	require.NoError(t, err)

	// Six full blocks plus a partial one: 7 data blocks and the indirect block.
	_, err = fs.Write(gone, pattern(6*types.BlockSize+1, 4), 0)
	require.NoError(t, err)
	report, err := fs.Inspect()
	require.NoError(t, err)
	released := report.Files[1].DirectBlocks
	released = append(released, report.Files[1].IndirectDataBlocks...)

	during, err := fs.FreeBlockCount()
	require.NoError(t, err)
	assert.Equal(t, before-8, during)

	require.NoError(t, fs.Delete(gone))
	assert.False(t, fs.IsValidInumber(gone))

	after, err := fs.FreeBlockCount()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = fs.GetSize(gone)
	assert.ErrorIs(t, err, types.ErrInvalidInumber)
	assert.ErrorIs(t, fs.Delete(gone), types.ErrInvalidInumber)

	// Released blocks go to the next writer.
	_, err = fs.Write(keep, pattern(2*types.BlockSize, 5), 0)
	require.NoError(t, err)
	report, err = fs.Inspect()
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, released[:2], report.Files[0].DirectBlocks)
}

func TestDelete_InvalidInumber(t *testing.T) {
	fs, _ := newMountedFS(t, 10)
	assert.ErrorIs(t, fs.Delete(0), types.ErrInvalidInumber)
	assert.ErrorIs(t, fs.Delete(5), types.ErrInvalidInumber)
	assert.ErrorIs(t, fs.Delete(1000), types.ErrInvalidInumber)
}

func TestFSError(t *testing.T) {
	cause := errors.New("boom")
	err := types.NewError("write", 3, types.ErrIO, cause)

	assert.ErrorIs(t, err, types.ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, types.ErrNoSpace)
	assert.Equal(t, "write inode 3: device I/O error: boom", err.Error())
	assert.Equal(t, "mount: corrupt superblock", types.NewError("mount", 0, types.ErrCorruptSuperblock, nil).Error())
	assert.Nil(t, types.KindOf(cause))
}
