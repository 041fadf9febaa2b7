package inodes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// ParsePointerBlock decodes an indirect block into its pointer array
func ParsePointerBlock(data []byte, endian binary.ByteOrder) (*types.PointerBlock, error) {
	if len(data) < types.PointersPerBlock*4 {
		return nil, fmt.Errorf("data too small for pointer block: %d bytes", len(data))
	}

	pb := &types.PointerBlock{}
	for i := range pb {
		pb[i] = types.BlockNumber(endian.Uint32(data[i*4 : i*4+4]))
	}
	return pb, nil
}

// EncodePointerBlock writes the pointer array into data
func EncodePointerBlock(pb *types.PointerBlock, data []byte, endian binary.ByteOrder) error {
	if len(data) < types.PointersPerBlock*4 {
		return fmt.Errorf("buffer too small for pointer block: %d bytes", len(data))
	}

	for i, ptr := range pb {
		endian.PutUint32(data[i*4:i*4+4], uint32(ptr))
	}
	return nil
}
