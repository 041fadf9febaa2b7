// Package types holds the on-disk data structures of the simple inode file system
// together with the layout constants and error kinds shared by every layer.
package types

// BlockNumber identifies a block on the device by index.
// Block 0 always holds the superblock, so it can never be referenced by an inode;
// the zero value therefore doubles as "no block".
type BlockNumber uint32

// NilBlock is the unallocated pointer value.
const NilBlock BlockNumber = 0

// IsNil reports whether the pointer is unallocated.
func (b BlockNumber) IsNil() bool {
	return b == NilBlock
}

// Allocated reports whether the pointer references a block.
func (b BlockNumber) Allocated() bool {
	return b != NilBlock
}

// Inumber identifies an inode within a mounted file system.
// Inumber 0 is reserved and never handed out by create.
type Inumber int
