package filesystem

import (
	"github.com/deploymenttheory/go-simplefs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-simplefs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Report describes the on-device state: the superblock and every inode in use
type Report struct {
	MagicValid  bool          `json:"magic_valid" yaml:"magic_valid"`
	Blocks      uint32        `json:"blocks" yaml:"blocks"`
	InodeBlocks uint32        `json:"inode_blocks" yaml:"inode_blocks"`
	Inodes      uint32        `json:"inodes" yaml:"inodes"`
	Files       []InodeReport `json:"files" yaml:"files"`
}

// InodeReport lists the size and blocks of one inode in use
type InodeReport struct {
	Inumber            types.Inumber       `json:"inumber" yaml:"inumber"`
	Size               int64               `json:"size" yaml:"size"`
	DirectBlocks       []types.BlockNumber `json:"direct_blocks" yaml:"direct_blocks"`
	IndirectBlock      types.BlockNumber   `json:"indirect_block,omitempty" yaml:"indirect_block,omitempty"`
	IndirectDataBlocks []types.BlockNumber `json:"indirect_data_blocks,omitempty" yaml:"indirect_data_blocks,omitempty"`
}

// Inspect reads the superblock and inode table straight from the device.
// It does not need a mount and does not touch the free block map.
// With a bad magic the report only has MagicValid=false.
func (fs *FileSystem) Inspect() (*Report, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	sb, err := fs.readSuperblock("inspect")
	if err != nil {
		return nil, err
	}

	report := &Report{MagicValid: sb.HasValidMagic()}
	if !report.MagicValid {
		return report, nil
	}
	report.Blocks = sb.TotalBlocks
	report.InodeBlocks = sb.InodeBlocks
	report.Inodes = sb.Inodes

	block := newBlock()
	for i := uint32(0); i < sb.InodeBlocks && uint32(types.InodeTableStart)+i < fs.dev.BlockCount(); i++ {
		if err := fs.readBlock("inspect", 0, types.InodeTableStart+types.BlockNumber(i), block); err != nil {
			return nil, err
		}
		reader, err := inodes.NewInodeBlockReader(block, superblock.ByteOrder)
		if err != nil {
			return nil, types.NewError("inspect", 0, types.ErrIO, err)
		}

		for slot := 0; slot < types.InodesPerBlock; slot++ {
			ino, err := reader.Inode(slot)
			if err != nil {
				return nil, types.NewError("inspect", 0, types.ErrIO, err)
			}
			if !ino.Valid {
				continue
			}
			inumber := types.Inumber(int(i)*types.InodesPerBlock + slot)

			fb, err := fs.walkInode(sb, "inspect", inumber, ino)
			if err != nil {
				return nil, err
			}
			report.Files = append(report.Files, InodeReport{
				Inumber:            inumber,
				Size:               ino.Size,
				DirectBlocks:       fb.Direct,
				IndirectBlock:      fb.Indirect,
				IndirectDataBlocks: fb.IndirectData,
			})
		}
	}

	return report, nil
}
