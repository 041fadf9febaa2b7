package filesystem

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/spacemanager"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Mount validates the superblock and rebuilds the free block map from the inode table.
// A mounted instance cannot be mounted again.
func (fs *FileSystem) Mount() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.mounted {
		return types.NewError("mount", 0, types.ErrAlreadyMounted, nil)
	}

	sb, err := fs.loadSuperblock("mount")
	if err != nil {
		return err
	}

	free := spacemanager.NewFreeBlockMap(sb)
	validInodes := 0

	block := newBlock()
	for i := uint32(0); i < sb.InodeBlocks; i++ {
		if err := fs.readBlock("mount", 0, types.InodeTableStart+types.BlockNumber(i), block); err != nil {
			return err
		}
		reader, err := inodes.NewInodeBlockReader(block, superblock.ByteOrder)
		if err != nil {
			return types.NewError("mount", 0, types.ErrIO, err)
		}

		for slot := 0; slot < types.InodesPerBlock; slot++ {
			ino, err := reader.Inode(slot)
			if err != nil {
				return types.NewError("mount", 0, types.ErrIO, err)
			}
			if !ino.Valid {
				continue
			}
			inumber := types.Inumber(int(i)*types.InodesPerBlock + slot)
			validInodes++

			fb, err := fs.walkInode(sb, "mount", inumber, ino)
			if err != nil {
				return err
			}
			for _, b := range fb.All() {
				if err := free.MarkUsed(b); err != nil {
					return types.NewError("mount", inumber, types.ErrCorruptInode, err)
				}
			}
		}
	}

	fs.sb = sb
	fs.free = free
	fs.session = uuid.New()
	fs.log = fs.baseLog.WithField("session", fs.session.String())
	fs.mounted = true

	fs.log.WithFields(logrus.Fields{
		"blocks":       sb.TotalBlocks,
		"inode_blocks": sb.InodeBlocks,
		"inodes":       sb.Inodes,
		"valid_inodes": validInodes,
		"free_blocks":  free.FreeCount(),
	}).Info("mounted file system")

	return nil
}
