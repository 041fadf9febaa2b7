package types

// Superblock is the layout descriptor stored at the start of block 0.
type Superblock struct {
	// Magic identifies a formatted device. Must equal FSMagic.
	Magic uint32

	// TotalBlocks is the number of blocks on the device at format time.
	TotalBlocks uint32

	// InodeBlocks is the number of blocks reserved for the inode table.
	InodeBlocks uint32

	// Inodes is the number of inode slots: InodeBlocks * InodesPerBlock.
	Inodes uint32
}

// NewSuperblock derives a fresh superblock for a device of totalBlocks blocks.
func NewSuperblock(totalBlocks uint32) Superblock {
	inodeBlocks := InodeBlocksFor(totalBlocks)
	return Superblock{
		Magic:       FSMagic,
		TotalBlocks: totalBlocks,
		InodeBlocks: inodeBlocks,
		Inodes:      inodeBlocks * InodesPerBlock,
	}
}

// HasValidMagic reports whether the superblock carries the file system magic.
func (sb Superblock) HasValidMagic() bool {
	return sb.Magic == FSMagic
}

// FirstDataBlock returns the first block past the inode table.
func (sb Superblock) FirstDataBlock() BlockNumber {
	return InodeTableStart + BlockNumber(sb.InodeBlocks)
}

// InodeTableEnd returns the last inode block (inclusive).
func (sb Superblock) InodeTableEnd() BlockNumber {
	return BlockNumber(sb.InodeBlocks)
}

// Contains reports whether b is a block index on the device.
func (sb Superblock) Contains(b BlockNumber) bool {
	return uint32(b) < sb.TotalBlocks
}

// IsDataBlock reports whether b lies in the data region of the device.
func (sb Superblock) IsDataBlock(b BlockNumber) bool {
	return b >= sb.FirstDataBlock() && sb.Contains(b)
}
