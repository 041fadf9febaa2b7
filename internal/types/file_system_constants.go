package types

// On-disk layout constants

const (
	// FSMagic marks a formatted device. Stored in the first field of block 0.
	FSMagic uint32 = 0xf0f03410

	// BlockSize is the fixed size of every device block in bytes.
	BlockSize = 4096

	// InodeSize is the size of one packed inode record:
	// valid, size, five direct pointers and one indirect pointer, all int32.
	InodeSize = 4 * (2 + PointersPerInode + 1)

	// InodesPerBlock is the number of inode records packed into one inode block.
	InodesPerBlock = BlockSize / InodeSize

	// PointersPerInode is the number of direct pointers held by an inode.
	PointersPerInode = 5

	// PointersPerBlock is the number of int32 block pointers in an indirect block.
	PointersPerBlock = BlockSize / 4

	// SuperblockSize is the number of meaningful bytes at the start of block 0.
	SuperblockSize = 16

	// SuperblockBlock is the index of the block holding the superblock.
	SuperblockBlock BlockNumber = 0

	// InodeTableStart is the index of the first inode block.
	InodeTableStart BlockNumber = 1

	// MaxBlocks is the largest device a superblock can describe; block counts are int32 on disk.
	MaxBlocks = 1<<31 - 1

	// InodeBlockRatio is the share of the device reserved for the inode table (one in ten blocks).
	InodeBlockRatio = 10

	// MaxFileBlocks is the number of data blocks a single inode can address.
	MaxFileBlocks = PointersPerInode + PointersPerBlock

	// MaxFileSize is the largest logical size a file can reach, in bytes.
	MaxFileSize = int64(MaxFileBlocks) * BlockSize
)

// InodeBlocksFor returns the number of inode blocks reserved on a device of
// totalBlocks blocks: ceil(totalBlocks / 10).
func InodeBlocksFor(totalBlocks uint32) uint32 {
	return (totalBlocks + InodeBlockRatio - 1) / InodeBlockRatio
}

// BlocksForSize returns how many data blocks are needed to hold size bytes.
func BlocksForSize(size int64) int {
	if size <= 0 {
		return 0
	}
	return int((size + BlockSize - 1) / BlockSize)
}

// InodeLocation returns the inode block and slot holding inumber.
func InodeLocation(inumber Inumber) (BlockNumber, int) {
	return InodeTableStart + BlockNumber(int(inumber)/InodesPerBlock), int(inumber) % InodesPerBlock
}
