package filesystem

import (
	"github.com/deploymenttheory/go-simplefs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// loadInode reads the inode block owning inumber and decodes its record.
// No range check: callers validate inumber first.
func (fs *FileSystem) loadInode(op string, inumber types.Inumber) (types.Inode, error) {
	blockNum, slot := types.InodeLocation(inumber)

	block := newBlock()
	if err := fs.readBlock(op, inumber, blockNum, block); err != nil {
		return types.Inode{}, err
	}
	reader, err := inodes.NewInodeBlockReader(block, superblock.ByteOrder)
	if err != nil {
		return types.Inode{}, types.NewError(op, inumber, types.ErrIO, err)
	}
	ino, err := reader.Inode(slot)
	if err != nil {
		return types.Inode{}, types.NewError(op, inumber, types.ErrInvalidInumber, err)
	}
	return ino, nil
}

// saveInode rewrites one record, reading the owning block first so the other
// records packed in it survive.
func (fs *FileSystem) saveInode(op string, inumber types.Inumber, ino types.Inode) error {
	blockNum, slot := types.InodeLocation(inumber)

	block := newBlock()
	if err := fs.readBlock(op, inumber, blockNum, block); err != nil {
		return err
	}
	reader, err := inodes.NewInodeBlockReader(block, superblock.ByteOrder)
	if err != nil {
		return types.NewError(op, inumber, types.ErrIO, err)
	}
	if err := reader.SetInode(slot, ino); err != nil {
		return types.NewError(op, inumber, types.ErrInvalidInumber, err)
	}
	return fs.writeBlock(op, inumber, blockNum, reader.Bytes())
}

func (fs *FileSystem) inRange(inumber types.Inumber) bool {
	return inumber > 0 && uint32(inumber) < fs.sb.Inodes
}

// validInode loads inumber and fails with ErrInvalidInumber unless it is in
// range and in use. Requires a mounted file system.
func (fs *FileSystem) validInode(op string, inumber types.Inumber) (types.Inode, error) {
	if !fs.mounted {
		return types.Inode{}, types.NewError(op, inumber, types.ErrNotMounted, nil)
	}
	if !fs.inRange(inumber) {
		return types.Inode{}, types.NewError(op, inumber, types.ErrInvalidInumber, nil)
	}
	ino, err := fs.loadInode(op, inumber)
	if err != nil {
		return types.Inode{}, err
	}
	if !ino.Valid {
		return types.Inode{}, types.NewError(op, inumber, types.ErrInvalidInumber, nil)
	}
	return ino, nil
}

// IsValidInumber reports whether inumber names an inode in use.
// Always false before mount.
func (fs *FileSystem) IsValidInumber(inumber types.Inumber) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := fs.validInode("stat", inumber)
	return err == nil
}
