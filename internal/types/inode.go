package types

// Inode is one fixed-size record of the inode table.
type Inode struct {
	// Valid marks the slot as in use.
	Valid bool

	// Size is the logical file size in bytes.
	Size int64

	// Direct holds the first PointersPerInode data block pointers.
	Direct [PointersPerInode]BlockNumber

	// Indirect points at a block of further data block pointers.
	// Only meaningful once the file needs more than PointersPerInode blocks.
	Indirect BlockNumber
}

// UsedBlocks returns the number of pointer slots covered by the logical size.
func (ino Inode) UsedBlocks() int {
	return BlocksForSize(ino.Size)
}

// HasIndirect reports whether the logical size reaches into the indirect block.
func (ino Inode) HasIndirect() bool {
	return ino.UsedBlocks() > PointersPerInode && ino.Indirect.Allocated()
}

// PointerBlock is the in-memory form of an indirect block.
type PointerBlock [PointersPerBlock]BlockNumber
