// Package spacemanager tracks which device blocks are free during a mount session.
//
// The map is never persisted. It is rebuilt at mount from the inode table and then
// kept current by block allocation and file deletion.
package spacemanager

import (
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// FreeBlockMap records one free/used flag per block. true means free.
// It has no locking of its own; the owning file system serialises access.
type FreeBlockMap struct {
	free      []bool
	freeCount int
	dataStart types.BlockNumber
}

// NewFreeBlockMap creates the map for a freshly mounted superblock.
// Block 0 and the inode table start used, every data block starts free.
func NewFreeBlockMap(sb types.Superblock) *FreeBlockMap {
	m := &FreeBlockMap{
		free:      make([]bool, sb.TotalBlocks),
		dataStart: sb.FirstDataBlock(),
	}
	for b := m.dataStart; uint32(b) < sb.TotalBlocks; b++ {
		m.free[b] = true
		m.freeCount++
	}
	return m
}

// Len returns the number of blocks covered by the map
func (m *FreeBlockMap) Len() int {
	return len(m.free)
}

// IsFree reports whether b is free. Indices outside the device are never free.
func (m *FreeBlockMap) IsFree(b types.BlockNumber) bool {
	return int(b) < len(m.free) && m.free[b]
}

// MarkUsed flags b as used. Reserved blocks cannot be handed out as data.
func (m *FreeBlockMap) MarkUsed(b types.BlockNumber) error {
	if err := m.check(b); err != nil {
		return err
	}
	if m.free[b] {
		m.free[b] = false
		m.freeCount--
	}
	return nil
}

// Release flags b as free again
func (m *FreeBlockMap) Release(b types.BlockNumber) error {
	if err := m.check(b); err != nil {
		return err
	}
	if !m.free[b] {
		m.free[b] = true
		m.freeCount++
	}
	return nil
}

// NextFree returns the first free block at or after from, scanning upwards.
// The scan never enters the superblock or the inode table.
func (m *FreeBlockMap) NextFree(from types.BlockNumber) (types.BlockNumber, bool) {
	if from < m.dataStart {
		from = m.dataStart
	}
	for b := from; int(b) < len(m.free); b++ {
		if m.free[b] {
			return b, true
		}
	}
	return types.NilBlock, false
}

// Allocate finds the first free block at or after from and marks it used
func (m *FreeBlockMap) Allocate(from types.BlockNumber) (types.BlockNumber, bool) {
	b, ok := m.NextFree(from)
	if !ok {
		return types.NilBlock, false
	}
	m.free[b] = false
	m.freeCount--
	return b, true
}

// FreeCount returns the number of free blocks
func (m *FreeBlockMap) FreeCount() int {
	return m.freeCount
}

// Snapshot returns a copy of the flags, indexed by block number
func (m *FreeBlockMap) Snapshot() []bool {
	out := make([]bool, len(m.free))
	copy(out, m.free)
	return out
}

// String renders the map as one digit per block, 1 for free, like the classic bitmap dump
func (m *FreeBlockMap) String() string {
	buf := make([]byte, len(m.free))
	for i, f := range m.free {
		if f {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

func (m *FreeBlockMap) check(b types.BlockNumber) error {
	if int(b) >= len(m.free) {
		return fmt.Errorf("block %d outside device of %d blocks", b, len(m.free))
	}
	if b < m.dataStart {
		return fmt.Errorf("block %d is reserved for the superblock or inode table", b)
	}
	return nil
}
