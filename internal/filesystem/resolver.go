package filesystem

import (
	"fmt"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// blockResolver maps logical byte offsets of one file to device blocks.
// The pointer block is read at most once per resolver.
type blockResolver struct {
	fs       *FileSystem
	op       string
	inumber  types.Inumber
	ino      *types.Inode
	pointers *types.PointerBlock
}

func (fs *FileSystem) newResolver(op string, inumber types.Inumber, ino *types.Inode) *blockResolver {
	return &blockResolver{fs: fs, op: op, inumber: inumber, ino: ino}
}

// slotFor returns the pointer slot holding offset
func slotFor(offset int64) int {
	return int(offset / types.BlockSize)
}

// resolve returns the block holding byte offset of the file
func (r *blockResolver) resolve(offset int64) (types.BlockNumber, error) {
	if offset < 0 || offset >= types.MaxFileSize {
		return types.NilBlock, types.NewError(r.op, r.inumber, types.ErrInvalidArgument,
			fmt.Errorf("offset %d outside addressable range [0, %d)", offset, types.MaxFileSize))
	}

	slot := slotFor(offset)
	var b types.BlockNumber
	if slot < types.PointersPerInode {
		b = r.ino.Direct[slot]
	} else {
		pointers, err := r.indirect()
		if err != nil {
			return types.NilBlock, err
		}
		b = pointers[slot-types.PointersPerInode]
	}

	if !r.fs.sb.IsDataBlock(b) {
		return types.NilBlock, corruptPointer(r.op, r.inumber, b, r.fs.sb)
	}
	return b, nil
}

// indirect loads the pointer block on first use
func (r *blockResolver) indirect() (*types.PointerBlock, error) {
	if r.pointers != nil {
		return r.pointers, nil
	}
	if !r.fs.sb.IsDataBlock(r.ino.Indirect) {
		return nil, corruptPointer(r.op, r.inumber, r.ino.Indirect, r.fs.sb)
	}
	pointers, err := r.fs.readPointerBlock(r.op, r.inumber, r.ino.Indirect)
	if err != nil {
		return nil, err
	}
	r.pointers = pointers
	return pointers, nil
}

// setIndirect installs a freshly allocated, empty pointer block
func (r *blockResolver) setIndirect(b types.BlockNumber) *types.PointerBlock {
	r.ino.Indirect = b
	r.pointers = &types.PointerBlock{}
	return r.pointers
}
