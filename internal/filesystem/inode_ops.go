package filesystem

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Create allocates the lowest free inumber as an empty file.
// Never returns 0; fails with ErrNoFreeInodes when the table is full.
func (fs *FileSystem) Create() (types.Inumber, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.mounted {
		return 0, types.NewError("create", 0, types.ErrNotMounted, nil)
	}

	block := newBlock()
	for i := uint32(0); i < fs.sb.InodeBlocks; i++ {
		if err := fs.readBlock("create", 0, types.InodeTableStart+types.BlockNumber(i), block); err != nil {
			return 0, err
		}
		reader, err := inodes.NewInodeBlockReader(block, superblock.ByteOrder)
		if err != nil {
			return 0, types.NewError("create", 0, types.ErrIO, err)
		}

		for slot := 0; slot < types.InodesPerBlock; slot++ {
			inumber := types.Inumber(int(i)*types.InodesPerBlock + slot)
			if !fs.inRange(inumber) {
				continue
			}
			ino, err := reader.Inode(slot)
			if err != nil {
				return 0, types.NewError("create", inumber, types.ErrIO, err)
			}
			if ino.Valid {
				continue
			}

			// A fresh record: stale pointers from a deleted file are dropped.
			if err := fs.saveInode("create", inumber, types.Inode{Valid: true}); err != nil {
				return 0, err
			}
			fs.log.WithField("inumber", inumber).Debug("created inode")
			return inumber, nil
		}
	}

	return 0, types.NewError("create", 0, types.ErrNoFreeInodes, nil)
}

// Delete releases the blocks of inumber and marks the inode unused.
// Size and pointers stay in the record; block contents stay on the device.
func (fs *FileSystem) Delete(inumber types.Inumber) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, err := fs.validInode("delete", inumber)
	if err != nil {
		return err
	}

	fb, err := fs.walkInode(fs.sb, "delete", inumber, ino)
	if err != nil {
		return err
	}

	released := fb.All()
	for _, b := range released {
		if err := fs.free.Release(b); err != nil {
			return types.NewError("delete", inumber, types.ErrCorruptInode, err)
		}
	}

	ino.Valid = false
	if err := fs.saveInode("delete", inumber, ino); err != nil {
		return err
	}

	fs.log.WithFields(logrus.Fields{
		"inumber":  inumber,
		"released": len(released),
	}).Debug("deleted inode")
	return nil
}

// GetSize returns the logical size of inumber in bytes
func (fs *FileSystem) GetSize(inumber types.Inumber) (int64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	ino, err := fs.validInode("getsize", inumber)
	if err != nil {
		return 0, err
	}
	return ino.Size, nil
}
