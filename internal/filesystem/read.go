package filesystem

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Read copies up to len(buf) bytes of inumber starting at offset into buf.
//
// A read starting at or past the end of file returns 0, io.EOF. A read crossing the
// end of file returns the bytes up to it with a nil error. Bytes past the logical
// size are never returned, even when the last block holds more.
func (fs *FileSystem) Read(inumber types.Inumber, buf []byte, offset int64) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	ino, err := fs.validInode("read", inumber)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, types.NewError("read", inumber, types.ErrInvalidArgument, fmt.Errorf("empty buffer"))
	}
	if offset < 0 {
		return 0, types.NewError("read", inumber, types.ErrInvalidArgument, fmt.Errorf("negative offset %d", offset))
	}
	if offset >= ino.Size {
		return 0, io.EOF
	}

	fb, err := fs.walkInode(fs.sb, "read", inumber, ino)
	if err != nil {
		return 0, err
	}
	blocks := fb.Data()

	end := min(ino.Size, offset+int64(len(buf)))
	block := newBlock()
	n := 0
	for pos := offset; pos < end; {
		idx := slotFor(pos)
		if idx >= len(blocks) {
			// Size claims more than the pointers cover.
			break
		}
		if err := fs.readBlock("read", inumber, blocks[idx], block); err != nil {
			return n, err
		}

		within := int(pos % types.BlockSize)
		chunk := min(types.BlockSize-within, int(end-pos))
		copy(buf[n:n+chunk], block[within:within+chunk])
		n += chunk
		pos += int64(chunk)
	}

	return n, nil
}
