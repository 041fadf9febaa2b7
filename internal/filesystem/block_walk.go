package filesystem

import (
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// fileBlocks lists the blocks an inode owns, in pointer-slot order
type fileBlocks struct {
	// Direct holds the data blocks reached through direct pointers
	Direct []types.BlockNumber

	// Indirect is the pointer block, NilBlock when the size never reaches it
	Indirect types.BlockNumber

	// IndirectData holds the data blocks listed in the pointer block
	IndirectData []types.BlockNumber
}

// Data returns every data block in logical order
func (fb fileBlocks) Data() []types.BlockNumber {
	out := make([]types.BlockNumber, 0, len(fb.Direct)+len(fb.IndirectData))
	out = append(out, fb.Direct...)
	return append(out, fb.IndirectData...)
}

// All returns the data blocks plus the pointer block, if any
func (fb fileBlocks) All() []types.BlockNumber {
	out := fb.Data()
	if fb.Indirect.Allocated() {
		out = append(out, fb.Indirect)
	}
	return out
}

// walkInode collects the blocks of ino, budgeted by its logical size.
//
// Pointers are visited in slot order while size bytes remain unaccounted. A zero
// pointer is skipped without consuming budget; a pointer outside the data region
// is reported as ErrCorruptInode. Slots past the logical size are never visited.
func (fs *FileSystem) walkInode(sb types.Superblock, op string, inumber types.Inumber, ino types.Inode) (fileBlocks, error) {
	var fb fileBlocks
	remaining := ino.Size

	for _, ptr := range ino.Direct {
		if remaining <= 0 {
			break
		}
		if ptr.IsNil() {
			continue
		}
		if !sb.IsDataBlock(ptr) {
			return fileBlocks{}, corruptPointer(op, inumber, ptr, sb)
		}
		fb.Direct = append(fb.Direct, ptr)
		remaining -= types.BlockSize
	}

	if remaining <= 0 || ino.Indirect.IsNil() {
		return fb, nil
	}
	if !sb.IsDataBlock(ino.Indirect) {
		return fileBlocks{}, corruptPointer(op, inumber, ino.Indirect, sb)
	}

	pointers, err := fs.readPointerBlock(op, inumber, ino.Indirect)
	if err != nil {
		return fileBlocks{}, err
	}
	fb.Indirect = ino.Indirect

	for _, ptr := range pointers {
		if remaining <= 0 {
			break
		}
		if ptr.IsNil() {
			continue
		}
		if !sb.IsDataBlock(ptr) {
			return fileBlocks{}, corruptPointer(op, inumber, ptr, sb)
		}
		fb.IndirectData = append(fb.IndirectData, ptr)
		remaining -= types.BlockSize
	}

	return fb, nil
}

func (fs *FileSystem) readPointerBlock(op string, inumber types.Inumber, b types.BlockNumber) (*types.PointerBlock, error) {
	block := newBlock()
	if err := fs.readBlock(op, inumber, b, block); err != nil {
		return nil, err
	}
	pointers, err := inodes.ParsePointerBlock(block, superblock.ByteOrder)
	if err != nil {
		return nil, types.NewError(op, inumber, types.ErrIO, err)
	}
	return pointers, nil
}

func (fs *FileSystem) writePointerBlock(op string, inumber types.Inumber, b types.BlockNumber, pointers *types.PointerBlock) error {
	block := newBlock()
	if err := inodes.EncodePointerBlock(pointers, block, superblock.ByteOrder); err != nil {
		return types.NewError(op, inumber, types.ErrIO, err)
	}
	return fs.writeBlock(op, inumber, b, block)
}

func corruptPointer(op string, inumber types.Inumber, ptr types.BlockNumber, sb types.Superblock) error {
	return types.NewError(op, inumber, types.ErrCorruptInode,
		fmt.Errorf("pointer to block %d outside data region [%d, %d)", ptr, sb.FirstDataBlock(), sb.TotalBlocks))
}
