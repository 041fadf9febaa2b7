package inodes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// InodeBlockReader provides access to the inode records packed in one inode block
type InodeBlockReader struct {
	data   []byte
	endian binary.ByteOrder
}

// NewInodeBlockReader wraps a raw inode block. Records are decoded on demand.
func NewInodeBlockReader(data []byte, endian binary.ByteOrder) (*InodeBlockReader, error) {
	if len(data) < types.InodesPerBlock*types.InodeSize {
		return nil, fmt.Errorf("data too small for inode block: %d bytes, need %d", len(data), types.InodesPerBlock*types.InodeSize)
	}
	return &InodeBlockReader{data: data, endian: endian}, nil
}

// Inode decodes the record at slot
func (r *InodeBlockReader) Inode(slot int) (types.Inode, error) {
	if slot < 0 || slot >= types.InodesPerBlock {
		return types.Inode{}, fmt.Errorf("inode slot %d out of range", slot)
	}
	return parseInode(r.data[slot*types.InodeSize:(slot+1)*types.InodeSize], r.endian), nil
}

// SetInode encodes ino into slot, leaving sibling records untouched
func (r *InodeBlockReader) SetInode(slot int, ino types.Inode) error {
	if slot < 0 || slot >= types.InodesPerBlock {
		return fmt.Errorf("inode slot %d out of range", slot)
	}
	encodeInode(ino, r.data[slot*types.InodeSize:(slot+1)*types.InodeSize], r.endian)
	return nil
}

// Bytes returns the underlying block buffer
func (r *InodeBlockReader) Bytes() []byte {
	return r.data
}

// parseInode decodes one record: int32 valid, size, direct[5], indirect
func parseInode(data []byte, endian binary.ByteOrder) types.Inode {
	ino := types.Inode{}
	offset := 0

	ino.Valid = endian.Uint32(data[offset:offset+4]) != 0
	offset += 4

	ino.Size = int64(int32(endian.Uint32(data[offset : offset+4])))
	offset += 4

	for i := range ino.Direct {
		ino.Direct[i] = types.BlockNumber(endian.Uint32(data[offset : offset+4]))
		offset += 4
	}

	ino.Indirect = types.BlockNumber(endian.Uint32(data[offset : offset+4]))

	return ino
}

func encodeInode(ino types.Inode, data []byte, endian binary.ByteOrder) {
	offset := 0

	var valid uint32
	if ino.Valid {
		valid = 1
	}
	endian.PutUint32(data[offset:offset+4], valid)
	offset += 4

	endian.PutUint32(data[offset:offset+4], uint32(int32(ino.Size)))
	offset += 4

	for _, ptr := range ino.Direct {
		endian.PutUint32(data[offset:offset+4], uint32(ptr))
		offset += 4
	}

	endian.PutUint32(data[offset:offset+4], uint32(ino.Indirect))
}
