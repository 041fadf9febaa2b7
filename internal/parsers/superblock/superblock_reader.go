package superblock

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// ByteOrder is the byte order of every on-disk integer.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// SuperblockReader provides parsing capabilities for the block 0 layout descriptor
type SuperblockReader struct {
	superblock *types.Superblock
	data       []byte
	endian     binary.ByteOrder
}

// NewSuperblockReader creates a new superblock reader.
// The magic is not checked here: format needs to look at foreign devices too.
func NewSuperblockReader(data []byte, endian binary.ByteOrder) (*SuperblockReader, error) {
	if len(data) < types.SuperblockSize {
		return nil, fmt.Errorf("data too small for superblock: %d bytes, need at least %d", len(data), types.SuperblockSize)
	}

	sb, err := parseSuperblock(data, endian)
	if err != nil {
		return nil, fmt.Errorf("failed to parse superblock: %w", err)
	}

	return &SuperblockReader{
		superblock: sb,
		data:       data,
		endian:     endian,
	}, nil
}

// parseSuperblock parses raw bytes into a Superblock structure
func parseSuperblock(data []byte, endian binary.ByteOrder) (*types.Superblock, error) {
	if len(data) < types.SuperblockSize {
		return nil, fmt.Errorf("insufficient data for superblock")
	}

	sb := &types.Superblock{}
	// int32 magic, nblocks, ninodeblocks, ninodes
	sb.Magic = endian.Uint32(data[0:4])
	sb.TotalBlocks = endian.Uint32(data[4:8])
	sb.InodeBlocks = endian.Uint32(data[8:12])
	sb.Inodes = endian.Uint32(data[12:16])

	return sb, nil
}

// Superblock returns the parsed structure
func (sr *SuperblockReader) Superblock() types.Superblock {
	return *sr.superblock
}

// HasValidMagic reports whether the block carries the file system magic
func (sr *SuperblockReader) HasValidMagic() bool {
	return sr.superblock.HasValidMagic()
}

// Validate checks the superblock against a device of deviceBlocks blocks.
// The geometry must be exactly what format would have written for that device.
func (sr *SuperblockReader) Validate(deviceBlocks uint32) error {
	sb := sr.superblock
	if !sb.HasValidMagic() {
		return fmt.Errorf("invalid magic: got 0x%08x, want 0x%08x", sb.Magic, types.FSMagic)
	}
	if sb.TotalBlocks != deviceBlocks {
		return fmt.Errorf("superblock records %d blocks, device has %d", sb.TotalBlocks, deviceBlocks)
	}
	if sb.InodeBlocks != types.InodeBlocksFor(sb.TotalBlocks) {
		return fmt.Errorf("superblock records %d inode blocks, want %d", sb.InodeBlocks, types.InodeBlocksFor(sb.TotalBlocks))
	}
	if sb.Inodes != sb.InodeBlocks*types.InodesPerBlock {
		return fmt.Errorf("superblock records %d inodes, want %d", sb.Inodes, sb.InodeBlocks*types.InodesPerBlock)
	}
	return nil
}

// Encode writes sb into the first bytes of block. The rest of block is zeroed.
func Encode(sb types.Superblock, block []byte, endian binary.ByteOrder) error {
	if len(block) < types.SuperblockSize {
		return fmt.Errorf("buffer too small for superblock: %d bytes", len(block))
	}
	clear(block)
	endian.PutUint32(block[0:4], sb.Magic)
	endian.PutUint32(block[4:8], sb.TotalBlocks)
	endian.PutUint32(block[8:12], sb.InodeBlocks)
	endian.PutUint32(block[12:16], sb.Inodes)
	return nil
}
