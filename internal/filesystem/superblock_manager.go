package filesystem

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Format writes a fresh superblock sized to the device and empties the inode table.
//
// Data blocks are not erased: file contents from a previous layout stay on the
// device, unreachable, until new writes reuse the blocks.
func (fs *FileSystem) Format() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.mounted {
		return types.NewError("format", 0, types.ErrAlreadyMounted, nil)
	}

	total := fs.dev.BlockCount()
	if total < 2 {
		return types.NewError("format", 0, types.ErrInvalidArgument, fmt.Errorf("device of %d blocks is too small", total))
	}

	old, err := fs.readSuperblock("format")
	if err != nil {
		return err
	}

	sb := types.NewSuperblock(total)

	// Clear every block that was or will be part of an inode table. An old table
	// is only trusted when the magic matches.
	clearTo := sb.InodeBlocks
	if old.HasValidMagic() && old.InodeBlocks > clearTo {
		clearTo = old.InodeBlocks
	}
	zero := newBlock()
	for i := uint32(0); i < clearTo && uint32(types.InodeTableStart)+i < total; i++ {
		if err := fs.writeBlock("format", 0, types.InodeTableStart+types.BlockNumber(i), zero); err != nil {
			return err
		}
	}

	block := newBlock()
	if err := superblock.Encode(sb, block, superblock.ByteOrder); err != nil {
		return types.NewError("format", 0, types.ErrInvalidArgument, err)
	}
	if err := fs.writeBlock("format", 0, types.SuperblockBlock, block); err != nil {
		return err
	}

	fs.log.WithFields(logrus.Fields{
		"blocks":       sb.TotalBlocks,
		"inode_blocks": sb.InodeBlocks,
		"inodes":       sb.Inodes,
		"reformat":     old.HasValidMagic(),
	}).Info("formatted device")

	return nil
}

// readSuperblock reads block 0 without validating it
func (fs *FileSystem) readSuperblock(op string) (types.Superblock, error) {
	block := newBlock()
	if err := fs.readBlock(op, 0, types.SuperblockBlock, block); err != nil {
		return types.Superblock{}, err
	}
	reader, err := superblock.NewSuperblockReader(block, superblock.ByteOrder)
	if err != nil {
		return types.Superblock{}, types.NewError(op, 0, types.ErrCorruptSuperblock, err)
	}
	return reader.Superblock(), nil
}

// loadSuperblock reads block 0 and checks it describes this device
func (fs *FileSystem) loadSuperblock(op string) (types.Superblock, error) {
	block := newBlock()
	if err := fs.readBlock(op, 0, types.SuperblockBlock, block); err != nil {
		return types.Superblock{}, err
	}
	reader, err := superblock.NewSuperblockReader(block, superblock.ByteOrder)
	if err != nil {
		return types.Superblock{}, types.NewError(op, 0, types.ErrCorruptSuperblock, err)
	}
	if err := reader.Validate(fs.dev.BlockCount()); err != nil {
		return types.Superblock{}, types.NewError(op, 0, types.ErrCorruptSuperblock, err)
	}
	return reader.Superblock(), nil
}
