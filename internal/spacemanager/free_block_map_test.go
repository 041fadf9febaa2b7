package spacemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

func TestNewFreeBlockMap(t *testing.T) {
	sb := types.NewSuperblock(25) // 3 inode blocks, data from block 4
	m := NewFreeBlockMap(sb)

	assert.Equal(t, 25, m.Len())
	assert.Equal(t, 21, m.FreeCount())
	for b := types.BlockNumber(0); b <= 3; b++ {
		assert.False(t, m.IsFree(b), "block %d should be reserved", b)
	}
	for b := types.BlockNumber(4); b < 25; b++ {
		assert.True(t, m.IsFree(b), "block %d should be free", b)
	}
	assert.False(t, m.IsFree(25))
	assert.Equal(t, "0000111111111111111111111", m.String())
}

func TestFreeBlockMap_MarkAndRelease(t *testing.T) {
	m := NewFreeBlockMap(types.NewSuperblock(10))

	require.NoError(t, m.MarkUsed(5))
	assert.False(t, m.IsFree(5))
	assert.Equal(t, 7, m.FreeCount())

	// Idempotent
	require.NoError(t, m.MarkUsed(5))
	assert.Equal(t, 7, m.FreeCount())

	require.NoError(t, m.Release(5))
	require.NoError(t, m.Release(5))
	assert.True(t, m.IsFree(5))
	assert.Equal(t, 8, m.FreeCount())
}

func TestFreeBlockMap_RejectsReservedAndOutOfRange(t *testing.T) {
	m := NewFreeBlockMap(types.NewSuperblock(10))

	assert.Error(t, m.MarkUsed(0))
	assert.Error(t, m.MarkUsed(1))
	assert.Error(t, m.Release(1))
	assert.Error(t, m.MarkUsed(10))
	assert.Equal(t, 8, m.FreeCount())
}

func TestFreeBlockMap_Allocate(t *testing.T) {
	m := NewFreeBlockMap(types.NewSuperblock(10))

	b, ok := m.Allocate(types.NilBlock)
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(2), b)

	require.NoError(t, m.MarkUsed(3))
	b, ok = m.Allocate(types.NilBlock)
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(4), b)

	b, ok = m.NextFree(8)
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(8), b)

	for {
		if _, ok := m.Allocate(types.NilBlock); !ok {
			break
		}
	}
	assert.Equal(t, 0, m.FreeCount())
	_, ok = m.NextFree(types.NilBlock)
	assert.False(t, ok)
}

func TestFreeBlockMap_SnapshotIsCopy(t *testing.T) {
	m := NewFreeBlockMap(types.NewSuperblock(10))
	snap := m.Snapshot()
	snap[5] = false
	assert.True(t, m.IsFree(5))
}
